package config

import (
	"fmt"
	"strings"
)

// Type is the scalar result type of a member.
type Type int

const (
	TypeNone Type = iota
	TypeChar
	TypeString
	TypeByte
	TypeShort
	TypeInteger
	TypeLong
	TypeDouble
	TypeFloat
	TypeBoolean
	TypeVoid
)

var typeNames = []string{
	TypeNone:    "none",
	TypeChar:    "char",
	TypeString:  "string",
	TypeByte:    "byte",
	TypeShort:   "short",
	TypeInteger: "integer",
	TypeLong:    "long",
	TypeDouble:  "double",
	TypeFloat:   "float",
	TypeBoolean: "boolean",
	TypeVoid:    "void",
}

func (t Type) String() string {
	if int(t) < 0 || int(t) >= len(typeNames) {
		return "none"
	}
	return typeNames[t]
}

// ParseType looks up a type by name, ignoring case.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}
	return TypeNone, fmt.Errorf("unknown type %q", s)
}

// TypeFromRemote maps a remote type name such as "java.lang.String" or "int"
// to a Type using its last dotted segment.
func TypeFromRemote(remoteType string) (Type, error) {
	name := remoteType
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "int" {
		name = "integer"
	}
	if name == "Character" {
		name = "char"
	}
	return ParseType(name)
}
