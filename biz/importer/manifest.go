package importer

import (
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/chrmrtns/safefonts/pkg/fonterr"
)

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["fonts"],
  "additionalProperties": false,
  "properties": {
    "fonts": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["file"],
        "additionalProperties": false,
        "properties": {
          "file":   {"type": "string", "minLength": 1},
          "family": {"type": "string", "maxLength": 255},
          "style":  {"type": "string", "enum": ["normal", "italic"]},
          "weight": {
            "anyOf": [
              {"type": "string", "enum": ["100", "200", "300", "400", "500", "600", "700", "800", "900"]},
              {"type": "integer", "enum": [100, 200, 300, 400, 500, 600, 700, 800, 900]}
            ]
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(manifestSchema)

// Entry 一个待导入的字体文件; 相对路径以清单所在目录为基准
type Entry struct {
	File   string `json:"file"`
	Family string `json:"family"`
	Weight string `json:"weight"`
	Style  string `json:"style"`
}

type Manifest struct {
	Fonts []Entry `json:"fonts"`
}

// ParseManifest 解析 YAML 并按 JSON Schema 校验
func ParseManifest(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fonterr.Wrap(err, fonterr.InvalidInput, "Manifest is not valid YAML")
	}
	if doc == nil {
		return nil, fonterr.New(fonterr.InvalidInput, "Manifest is empty")
	}

	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fonterr.Wrap(err, fonterr.InvalidInput, "Manifest could not be validated")
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fonterr.New(fonterr.InvalidInput, "Invalid manifest: %s", strings.Join(msgs, "; "))
	}

	var m Manifest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &m,
		TagName:          "json",
		WeaklyTypedInput: true, // weight: 400 -> "400"
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fonterr.Wrap(err, fonterr.InvalidInput, "Invalid manifest")
	}
	return &m, nil
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}
	return ParseManifest(data)
}
