package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ytfactory/internal/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue an API bearer token for serve",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Duration("expiry", 0, "token lifetime (default: auth.token_expiry)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not set (YTF_AUTH_JWT_SECRET)")
	}

	expiry, _ := cmd.Flags().GetDuration("expiry")
	if expiry <= 0 {
		expiry = cfg.Auth.TokenExpiry
	}

	j := jwt.NewJWT(cfg.Auth.JWTSecret, expiry)
	token, err := j.GenerateToken(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
