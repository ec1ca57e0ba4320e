package registry

import (
	"embed"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/kernelkit/confd/internal/domain/confderr"
	"github.com/kernelkit/confd/internal/domain/translator"
)

//go:embed priorities.yaml
var embeddedPriorities embed.FS

// LoadDefaultPriorities parses the built-in priorities.yaml table into a
// Type-to-priority map, used by cmd/confd to fill in Metadata.Priority for
// translators that don't set one explicitly.
func LoadDefaultPriorities() (map[translator.Type]int, error) {
	return loadPriorities(embeddedPriorities, "priorities.yaml")
}

func loadPriorities(fsys fs.FS, name string) (map[translator.Type]int, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeInternal, "read priorities table", err, nil)
	}

	var decoded map[string]int
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeValidation, "parse priorities table", err, nil)
	}

	out := make(map[translator.Type]int, len(decoded))
	for k, v := range decoded {
		out[translator.Type(k)] = v
	}
	return out, nil
}
