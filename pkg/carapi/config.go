package carapi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// UserNameKey is the preference key the acting user name is stored under.
	UserNameKey = "userName"
	// DefaultUserName is used whenever no usable user name is configured.
	DefaultUserName = "Default VSCode User"
)

// TypeValues are the two discriminator values written to TypeField.
type TypeValues struct {
	Base  string `yaml:"base" json:"base"`
	Model string `yaml:"model" json:"model"`
}

// Mapping names the external key used for each internal field.
type Mapping struct {
	ID         string     `yaml:"id" json:"id"`
	Brand      string     `yaml:"brand" json:"brand"`
	Model      string     `yaml:"model" json:"model"`
	Price      string     `yaml:"price" json:"price"`
	Year       string     `yaml:"year" json:"year"`
	TypeField  string     `yaml:"typeField" json:"typeField"`
	TypeValues TypeValues `yaml:"typeValues" json:"typeValues"`
}

// Config describes where the car resource lives and how it is shaped.
type Config struct {
	BaseURL     string  `yaml:"baseUrl" json:"baseUrl"`
	Resource    string  `yaml:"resource" json:"resource"`
	UserParam   string  `yaml:"userNameParamName" json:"userNameParamName"`
	TypeEnabled bool    `yaml:"typeEnabled" json:"typeEnabled"`
	Mapping     Mapping `yaml:"mapping" json:"mapping"`
}

// DefaultConfig returns the configuration of the reference CarFamily service.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://ltpe4.web.techcollege.dk",
		Resource:    "/api/CarFamily",
		UserParam:   "userName",
		TypeEnabled: true,
		Mapping: Mapping{
			ID:        "carId",
			Brand:     "carName",
			Model:     "carModel",
			Price:     "carPrice",
			Year:      "carYear",
			TypeField: "$type",
			TypeValues: TypeValues{
				Base:  "car",
				Model: "carModel",
			},
		},
	}
}

// MappingPatch overrides individual mapping keys. Nil fields keep their
// current value; a non-nil TypeValues replaces both values.
type MappingPatch struct {
	ID         *string     `yaml:"id,omitempty" json:"id,omitempty"`
	Brand      *string     `yaml:"brand,omitempty" json:"brand,omitempty"`
	Model      *string     `yaml:"model,omitempty" json:"model,omitempty"`
	Price      *string     `yaml:"price,omitempty" json:"price,omitempty"`
	Year       *string     `yaml:"year,omitempty" json:"year,omitempty"`
	TypeField  *string     `yaml:"typeField,omitempty" json:"typeField,omitempty"`
	TypeValues *TypeValues `yaml:"typeValues,omitempty" json:"typeValues,omitempty"`
}

// ConfigPatch is a partial Config. Nil fields keep their current value and a
// Mapping patch is merged key by key. No validation is performed: a bad value
// shows up as failing requests.
type ConfigPatch struct {
	BaseURL     *string       `yaml:"baseUrl,omitempty" json:"baseUrl,omitempty"`
	Resource    *string       `yaml:"resource,omitempty" json:"resource,omitempty"`
	UserParam   *string       `yaml:"userNameParamName,omitempty" json:"userNameParamName,omitempty"`
	TypeEnabled *bool         `yaml:"typeEnabled,omitempty" json:"typeEnabled,omitempty"`
	Mapping     *MappingPatch `yaml:"mapping,omitempty" json:"mapping,omitempty"`
}

// Apply returns cfg with the patch merged in.
func (p ConfigPatch) Apply(cfg Config) Config {
	setString(&cfg.BaseURL, p.BaseURL)
	setString(&cfg.Resource, p.Resource)
	setString(&cfg.UserParam, p.UserParam)
	if p.TypeEnabled != nil {
		cfg.TypeEnabled = *p.TypeEnabled
	}
	if m := p.Mapping; m != nil {
		setString(&cfg.Mapping.ID, m.ID)
		setString(&cfg.Mapping.Brand, m.Brand)
		setString(&cfg.Mapping.Model, m.Model)
		setString(&cfg.Mapping.Price, m.Price)
		setString(&cfg.Mapping.Year, m.Year)
		setString(&cfg.Mapping.TypeField, m.TypeField)
		if m.TypeValues != nil {
			cfg.Mapping.TypeValues = *m.TypeValues
		}
	}
	return cfg
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// StringPtr is a convenience for building patches.
func StringPtr(v string) *string {
	return &v
}

// BoolPtr is a convenience for building patches.
func BoolPtr(v bool) *bool {
	return &v
}

// LoadConfigPatch reads a YAML or JSON patch file.
func LoadConfigPatch(path string) (ConfigPatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigPatch{}, fmt.Errorf("carapi: read config %q: %w", path, err)
	}
	return ParseConfigPatch(data)
}

// ParseConfigPatch decodes YAML or JSON patch content.
func ParseConfigPatch(data []byte) (ConfigPatch, error) {
	var patch ConfigPatch
	if err := yaml.Unmarshal(data, &patch); err != nil {
		return ConfigPatch{}, fmt.Errorf("carapi: parse config: %w", err)
	}
	return patch, nil
}
