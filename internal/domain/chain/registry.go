package chain

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// ClassDefinition es la función de canonicalización de una clase en una versión concreta.
type ClassDefinition struct {
	Tag     string
	Version int
	Fields  []FieldSpec
	// RowKey es el campo por el que se ordenan las filas de esta clase cuando aparece como hija.
	RowKey string
}

// ClassOption ajusta una definición al registrarla.
type ClassOption func(*ClassDefinition)

// WithRowKey declara la llave estable de orden de filas.
func WithRowKey(field string) ClassOption {
	return func(d *ClassDefinition) { d.RowKey = field }
}

// Registry guarda las clases registrables y sus versiones.
// Se llena al arrancar y se cierra con Seal; después es inmutable.
type Registry struct {
	mu      sync.RWMutex
	classes map[string][]*ClassDefinition
	sealed  bool
}

// NewRegistry crea un registro vacío y abierto.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string][]*ClassDefinition)}
}

// RegisterClass declara la versión 1 de una clase (register_hashable_class).
func (r *Registry) RegisterClass(tag string, fields []FieldSpec, opts ...ClassOption) error {
	return r.add(tag, 1, fields, opts)
}

// UpgradeVersion registra una nueva versión de una clase ya declarada.
// La versión debe ser exactamente la siguiente; las anteriores no se tocan.
func (r *Registry) UpgradeVersion(tag string, version int, fields []FieldSpec, opts ...ClassOption) error {
	if version < 2 {
		return errors.Wrapf(ErrInvalidDefinition, "%s: la versión %d no es una mejora", tag, version)
	}
	return r.add(tag, version, fields, opts)
}

func (r *Registry) add(tag string, version int, fields []FieldSpec, opts []ClassOption) error {
	def := &ClassDefinition{Tag: tag, Version: version, Fields: append([]FieldSpec(nil), fields...)}
	for _, opt := range opts {
		opt(def)
	}
	if err := validateDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return errors.Wrapf(ErrRegistrySealed, "registrar %s v%d", tag, version)
	}
	versions := r.classes[tag]
	if version <= len(versions) {
		return errors.Wrapf(ErrInvalidDefinition, "%s v%d ya está registrada", tag, version)
	}
	if version != len(versions)+1 {
		return errors.Wrapf(ErrInvalidDefinition, "%s: se esperaba la versión %d, se recibió %d", tag, len(versions)+1, version)
	}
	r.classes[tag] = append(versions, def)
	return nil
}

func validateDefinition(def *ClassDefinition) error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrInvalidDefinition, "%s v%d: %s", def.Tag, def.Version, fmt.Sprintf(format, args...))
	}
	if err := validateTag(def.Tag); err != nil {
		return invalid("%v", err)
	}
	if len(def.Fields) == 0 {
		return invalid("la lista de campos está vacía")
	}
	seen := make(map[string]FieldSpec, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			return invalid("campo sin nombre")
		}
		if _, dup := seen[f.Name]; dup {
			return invalid("campo %q duplicado", f.Name)
		}
		seen[f.Name] = f
		switch f.Kind {
		case KindBool, KindInt, KindDate, KindDateTime, KindText, KindRef:
		case KindDecimal:
			if f.Precision < 0 || f.Precision > 18 {
				return invalid("precisión %d inválida en %q", f.Precision, f.Name)
			}
		case KindRows:
			if err := validateTag(f.Child); err != nil {
				return invalid("clase hija de %q: %v", f.Name, err)
			}
			if f.ChildVersion < 1 {
				return invalid("versión de la clase hija de %q debe ser >= 1", f.Name)
			}
		default:
			return invalid("tipo %d desconocido en %q", int(f.Kind), f.Name)
		}
	}
	if def.RowKey != "" {
		key, ok := seen[def.RowKey]
		if !ok {
			return invalid("la llave de filas %q no está en la lista de campos", def.RowKey)
		}
		if key.Kind == KindRows {
			return invalid("la llave de filas %q no puede ser de tipo rows", def.RowKey)
		}
	}
	return nil
}

// validateTag exige que el tag empiece con letra: así "<versión><tag>" no es ambiguo.
func validateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag vacío")
	}
	first, _ := utf8.DecodeRuneInString(tag)
	if !unicode.IsLetter(first) {
		return fmt.Errorf("el tag %q debe empezar con una letra", tag)
	}
	if strings.ContainsAny(tag, separators) || !utf8.ValidString(tag) {
		return fmt.Errorf("el tag %q contiene caracteres no permitidos", tag)
	}
	return nil
}

// Seal cierra el registro: valida que las clases hijas existan, que tengan llave de orden
// y que ninguna clase se contenga a sí misma.
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrRegistrySealed
	}
	for tag, versions := range r.classes {
		for _, def := range versions {
			for _, f := range def.Fields {
				if f.Kind != KindRows {
					continue
				}
				children, ok := r.classes[f.Child]
				if !ok {
					return errors.Wrapf(ErrInvalidDefinition, "%s v%d: la clase hija %q no está registrada", tag, def.Version, f.Child)
				}
				if f.ChildVersion > len(children) {
					return errors.Wrapf(ErrInvalidDefinition, "%s v%d: la clase hija %q no tiene versión %d", tag, def.Version, f.Child, f.ChildVersion)
				}
				if children[f.ChildVersion-1].RowKey == "" {
					return errors.Wrapf(ErrInvalidDefinition, "%s v%d: la clase hija %q v%d no declara llave de filas", tag, def.Version, f.Child, f.ChildVersion)
				}
			}
		}
	}
	if err := r.detectCycles(); err != nil {
		return err
	}
	r.sealed = true
	return nil
}

// detectCycles recorre el grafo clase → clases hijas (todas las versiones).
func (r *Registry) detectCycles() error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(r.classes))
	var visit func(tag string, path []string) error
	visit = func(tag string, path []string) error {
		switch state[tag] {
		case inProgress:
			return errors.Wrapf(ErrInvalidDefinition, "ciclo de clases: %s", strings.Join(append(path, tag), " -> "))
		case done:
			return nil
		}
		state[tag] = inProgress
		path = append(append([]string(nil), path...), tag)
		for _, def := range r.classes[tag] {
			for _, f := range def.Fields {
				if f.Kind != KindRows {
					continue
				}
				if err := visit(f.Child, path); err != nil {
					return err
				}
			}
		}
		state[tag] = done
		return nil
	}
	for tag := range r.classes {
		if err := visit(tag, nil); err != nil {
			return err
		}
	}
	return nil
}

// Sealed indica si el registro ya está cerrado.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// CurrentVersion es la versión con la que el enlazador congela registros nuevos de la clase.
func (r *Registry) CurrentVersion(tag string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.classes[tag]
	if len(versions) == 0 {
		return 0, &HashError{Class: tag, Version: 1}
	}
	return len(versions), nil
}

// Definition devuelve la definición exacta (tag, versión) o HashError{UnknownVersion}.
func (r *Registry) Definition(tag string, version int) (*ClassDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.classes[tag]
	if version < 1 || version > len(versions) {
		return nil, &HashError{Class: tag, Version: version}
	}
	return versions[version-1], nil
}

// Classes lista los tags registrados.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.classes))
	for tag := range r.classes {
		tags = append(tags, tag)
	}
	return tags
}
