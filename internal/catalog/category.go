package catalog

import "fmt"

// Category is one of the fixed technology slots a stack is made of.
// The set is closed; switches over it are expected to be exhaustive.
type Category uint8

const (
	Language Category = iota
	Backend
	Frontend
	Database
	Cache
	Queue
	AI
	Infra
	CICD

	numCategories
)

var categoryNames = [numCategories]string{
	Language: "language",
	Backend:  "backend",
	Frontend: "frontend",
	Database: "database",
	Cache:    "cache",
	Queue:    "queue",
	AI:       "ai",
	Infra:    "infra",
	CICD:     "ci_cd",
}

// All returns every category in resolution order. Language comes first
// because backend admissibility depends on the chosen language.
func All() []Category {
	out := make([]Category, 0, numCategories)
	for c := Language; c < numCategories; c++ {
		out = append(out, c)
	}
	return out
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool { return c < numCategories }

// DependsOnLanguage reports whether selection in this category is driven by
// the already chosen language.
func (c Category) DependsOnLanguage() bool {
	switch c {
	case Backend:
		return true
	case Language, Frontend, Database, Cache, Queue, AI, Infra, CICD:
		return false
	default:
		panic(fmt.Sprintf("unhandled category %d", uint8(c)))
	}
}

// ParseCategory resolves the wire name of a category.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
