// File: confstack/descriptor.go
package confstack

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Field describes one configurable field of a struct: its logical name,
// optional external-name overrides, default literal, and flags that
// alter resolution. A field with a non-nil Nested descriptor delegates
// to the child type's own resolution and never receives the derived
// environment key treatment.
type Field struct {
	// Name is the logical field name, lowercase.
	Name string

	// EnvKey overrides the derived environment variable name. Ignored
	// when Nested is set.
	EnvKey string

	// FlagName overrides the derived kebab-case command-line name.
	FlagName string

	// Default is a JSON-compatible default literal. Literals that do
	// not parse as JSON are taken as plain strings.
	Default string

	// Required fails resolution when no source provides a value.
	Required bool

	// Skip excludes the field from resolution entirely.
	Skip bool

	// Nested delegates this field to another descriptor set.
	Nested *Struct
}

// Struct describes a configurable type: its own naming prefix (possibly
// empty) and its field descriptors. The prefix composes with ancestor
// prefixes at resolution time.
type Struct struct {
	Name   string
	Prefix string
	Fields []Field
}

// StructOf derives a descriptor set from a struct value by reflection,
// reading the "config" tag. Supported tag options after the name:
//
//	env=KEY       explicit environment variable name
//	flag=name     explicit command-line name
//	default=lit   default literal
//	required      fail when unresolved
//	nested        delegate to the field's struct type
//	prefix=P      the nested type's own prefix
//
// "config:\"-\"" skips the field. The nested option wins over env=;
// a nested field owns its own prefix chain entirely.
func StructOf(prefix string, sample any) (*Struct, error) {
	t := reflect.TypeOf(sample)
	if t == nil {
		return nil, fmt.Errorf("%w: StructOf requires a struct, got nil", ErrConfiguration)
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: StructOf requires a struct, got %s", ErrConfiguration, t.Kind())
	}

	spec := &Struct{Name: t.Name(), Prefix: prefix}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("config")
		if tag == "-" {
			continue
		}

		field, nestedPrefix, isNested, err := parseFieldTag(sf.Name, tag)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s.%s: %v", ErrConfiguration, t.Name(), sf.Name, err)
		}

		if isNested {
			ft := sf.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() != reflect.Struct || ft == reflect.TypeOf(time.Time{}) {
				return nil, fmt.Errorf("%w: field %s.%s: nested requires a struct type, got %s",
					ErrConfiguration, t.Name(), sf.Name, sf.Type)
			}

			child, err := StructOf(nestedPrefix, reflect.New(ft).Elem().Interface())
			if err != nil {
				return nil, err
			}
			field.Nested = child
			field.EnvKey = "" // nested fields own their prefix chain
		}

		spec.Fields = append(spec.Fields, field)
	}

	return spec, nil
}

// parseFieldTag splits a "config" tag into a field descriptor. The
// first element names the field; the remainder are options.
func parseFieldTag(goName, tag string) (Field, string, bool, error) {
	field := Field{Name: strings.ToLower(goName)}
	var nestedPrefix string
	var isNested bool

	if tag == "" {
		return field, "", false, nil
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		field.Name = parts[0]
	}

	for _, opt := range parts[1:] {
		switch {
		case opt == "nested":
			isNested = true
		case opt == "required":
			field.Required = true
		case opt == "skip":
			field.Skip = true
		case strings.HasPrefix(opt, "env="):
			field.EnvKey = strings.TrimPrefix(opt, "env=")
		case strings.HasPrefix(opt, "flag="):
			field.FlagName = strings.TrimPrefix(opt, "flag=")
		case strings.HasPrefix(opt, "default="):
			field.Default = strings.TrimPrefix(opt, "default=")
		case strings.HasPrefix(opt, "prefix="):
			nestedPrefix = strings.TrimPrefix(opt, "prefix=")
		case opt == "":
			// Tolerate trailing commas
		default:
			return field, "", false, fmt.Errorf("unknown tag option %q", opt)
		}
	}

	return field, nestedPrefix, isNested, nil
}

// flagName returns the field's command-line name: the explicit override
// or the kebab-cased logical name.
func (f Field) flagName() string {
	if f.FlagName != "" {
		return f.FlagName
	}
	return strings.ReplaceAll(f.Name, "_", "-")
}
