package scheme

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Object is any pointer to struct that travels through the bus as a command or an event.
type Object interface{}

// KnownTypesRegistry maps a message kind to its go type. The registry is populated
// at startup; lookups at runtime are read-only.
type KnownTypesRegistry interface {
	// RegisterTypes registers types under the kind derived from the struct name
	RegisterTypes(objs ...Object)
	// RegisterTypeWithKind registers a type under an explicit kind
	RegisterTypeWithKind(kind string, obj Object)
	// NewObject returns a new instance of the type registered under kind
	NewObject(kind string) (Object, error)
	// ObjectKind returns the kind a type was registered under
	ObjectKind(obj Object) (string, error)
}

func NewKnownTypesRegistry() KnownTypesRegistry {
	return &knownTypesRegistry{
		kindToType: map[string]reflect.Type{},
		typeToKind: map[reflect.Type]string{},
	}
}

type knownTypesRegistry struct {
	kindToType map[string]reflect.Type
	typeToKind map[reflect.Type]string
}

func (r *knownTypesRegistry) RegisterTypes(objs ...Object) {
	for _, obj := range objs {
		structType := GetStructType(obj)
		r.register(structType.Name(), structType)
	}
}

func (r *knownTypesRegistry) RegisterTypeWithKind(kind string, obj Object) {
	r.register(kind, GetStructType(obj))
}

func (r *knownTypesRegistry) NewObject(kind string) (Object, error) {
	t, exists := r.kindToType[kind]

	if !exists {
		return nil, errors.Errorf("type %s is not registered in KnownTypes", kind)
	}

	return reflect.New(t).Interface(), nil
}

func (r *knownTypesRegistry) ObjectKind(obj Object) (string, error) {
	structType := GetStructType(obj)

	kind, exists := r.typeToKind[structType]
	if !exists {
		return "", errors.Errorf("no kind is registered for the type %s", structType.Name())
	}

	return kind, nil
}

func (r *knownTypesRegistry) register(kind string, structType reflect.Type) {
	if kind == "" {
		panic(fmt.Sprintf("kind is required on all types: %v", structType))
	}

	if oldT, found := r.kindToType[kind]; found && oldT != structType {
		panic(fmt.Sprintf("double registration of different types for %s: old=%v.%v, new=%v.%v", kind, oldT.PkgPath(), oldT.Name(), structType.PkgPath(), structType.Name()))
	}

	r.kindToType[kind] = structType
	r.typeToKind[structType] = kind
}

// GetStructType returns the struct type behind obj, dereferencing the pointer if needed
func GetStructType(obj Object) reflect.Type {
	structType := reflect.TypeOf(obj)

	if structType.Kind() != reflect.Ptr {
		structType = reflect.PtrTo(structType)
	}

	structType = structType.Elem()
	if structType.Kind() != reflect.Struct {
		panic("all types must be pointers to structs")
	}

	return structType
}
