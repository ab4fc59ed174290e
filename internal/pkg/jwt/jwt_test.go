package jwt

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestJWT(t *testing.T) {
	Convey("JWT", t, func() {
		j := NewJWT("secret", time.Hour)

		Convey("签发后可以验证", func() {
			token, err := j.GenerateToken("ci-bot")
			So(err, ShouldBeNil)
			claims, err := j.ValidateToken(token)
			So(err, ShouldBeNil)
			So(claims.Subject, ShouldEqual, "ci-bot")
			So(claims.Issuer, ShouldEqual, "ytfactory")
		})

		Convey("空 subject", func() {
			_, err := j.GenerateToken("")
			So(err, ShouldEqual, ErrEmptySubject)
		})

		Convey("密钥不同", func() {
			token, _ := NewJWT("other", time.Hour).GenerateToken("ci-bot")
			_, err := j.ValidateToken(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("过期", func() {
			expired := &JWT{secret: []byte("secret"), expiration: -time.Minute}
			token, _ := expired.GenerateToken("ci-bot")
			_, err := j.ValidateToken(token)
			So(err, ShouldEqual, ErrExpiredToken)
		})

		Convey("乱码", func() {
			_, err := j.ValidateToken("not-a-token")
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("默认有效期", func() {
			So(NewJWT("s", 0).Expiration(), ShouldEqual, 24*time.Hour)
		})
	})
}
