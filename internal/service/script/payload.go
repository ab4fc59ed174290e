package script

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"ytfactory/internal/model/video"
	"ytfactory/internal/pkg/errkind"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")

// ExtractJSONPayload 从模型的自由文本里取出 JSON
// 依次尝试：markdown 代码块、首个 '[' 到末个 ']'、首个 '{' 到末个 '}'
func ExtractJSONPayload(text string) (string, error) {
	content := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 {
		content = strings.TrimSpace(m[1])
	}

	arrStart, arrEnd := strings.Index(content, "["), strings.LastIndex(content, "]")
	objStart, objEnd := strings.Index(content, "{"), strings.LastIndex(content, "}")

	// 对象包裹数组（{"sentences":[...]}）时取整个对象
	if objStart >= 0 && objEnd > objStart && (arrStart < 0 || objStart < arrStart) {
		return content[objStart : objEnd+1], nil
	}
	if arrStart >= 0 && arrEnd > arrStart {
		return content[arrStart : arrEnd+1], nil
	}
	return "", fmt.Errorf("%w: no JSON found in model output", errkind.ErrGenerationFormat)
}

// rawSentence 兼容模型常见的字段变体
type rawSentence struct {
	Sentence string `json:"sentence"`
	Text     string `json:"text"`
	Keyword  string `json:"keyword"`
	Keywords string `json:"keywords"`
}

func (r rawSentence) toScript() video.ScriptSentence {
	text := r.Sentence
	if text == "" {
		text = r.Text
	}
	kw := r.Keyword
	if kw == "" {
		kw = r.Keywords
	}
	return video.ScriptSentence{
		Text:    strings.TrimSpace(text),
		Keyword: strings.TrimSpace(kw),
	}
}

// ParseScript 解析模型输出为句子列表
func ParseScript(text string) ([]video.ScriptSentence, error) {
	payload, err := ExtractJSONPayload(text)
	if err != nil {
		return nil, err
	}

	var raws []rawSentence
	if strings.HasPrefix(payload, "{") {
		var wrapper struct {
			Sentences []rawSentence `json:"sentences"`
			Script    []rawSentence `json:"script"`
		}
		if err := json.Unmarshal([]byte(payload), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", errkind.ErrGenerationFormat, err)
		}
		raws = wrapper.Sentences
		if len(raws) == 0 {
			raws = wrapper.Script
		}
	} else if err := json.Unmarshal([]byte(payload), &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", errkind.ErrGenerationFormat, err)
	}

	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: script has no sentences", errkind.ErrGenerationFormat)
	}

	out := make([]video.ScriptSentence, len(raws))
	for i, r := range raws {
		out[i] = r.toScript()
	}
	return out, nil
}
