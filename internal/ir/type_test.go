package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimitiveTypeStrings(t *testing.T) {
	assert.Equal(t, "b", Bool.String())
	assert.Equal(t, "i32", I32.String())
	assert.Equal(t, "u8", U8.String())
	assert.Equal(t, "ptr", Ptr.String())
	assert.Equal(t, "func", Func.String())
}

func TestIntTypeNamed(t *testing.T) {
	ty, ok := IntTypeNamed("u64")
	assert.True(t, ok)
	assert.Same(t, U64, ty)

	_, ok = IntTypeNamed("i128")
	assert.False(t, ok)
}

func TestIdenticalPrimitives(t *testing.T) {
	assert.True(t, Identical(I32, I32))
	assert.False(t, Identical(I32, U32))
	assert.False(t, Identical(I32, I64))
	assert.True(t, Identical(Bool, Bool))
	assert.False(t, Identical(Bool, Ptr))
}

func TestIdenticalStructural(t *testing.T) {
	a := &SharedPointerType{Elem: I32, Strength: Strong}
	b := &SharedPointerType{Elem: I32, Strength: Strong}
	c := &SharedPointerType{Elem: I32, Strength: Weak}
	assert.True(t, Identical(a, b))
	assert.False(t, Identical(a, c))

	count := int64(4)
	arr1 := &ArrayType{Elem: I8, Count: &count}
	arr2 := &ArrayType{Elem: I8, Count: &count}
	arr3 := &ArrayType{Elem: I8}
	assert.True(t, Identical(arr1, arr2))
	assert.False(t, Identical(arr1, arr3))

	s1 := &StructType{Fields: []StructField{{Name: "x", Type: I32}, {Name: "y", Type: I32}}}
	s2 := &StructType{Fields: []StructField{{Name: "x", Type: I32}, {Name: "y", Type: I32}}}
	s3 := &StructType{Fields: []StructField{{Name: "y", Type: I32}, {Name: "x", Type: I32}}}
	assert.True(t, Identical(s1, s2))
	assert.False(t, Identical(s1, s3), "field order is significant")
}

func TestTypeTableInterns(t *testing.T) {
	tt := NewTypeTable()
	a := tt.Intern(&UniquePointerType{Elem: I32})
	b := tt.Intern(&UniquePointerType{Elem: I32})
	assert.Same(t, a, b)

	c := tt.Intern(&UniquePointerType{Elem: I64})
	assert.NotSame(t, a, c)

	// Primitives pass through untouched.
	assert.Same(t, I32, tt.Intern(I32))
}

func TestTypeTableAll(t *testing.T) {
	tt := NewTypeTable()
	tt.Intern(&UniquePointerType{Elem: I32})
	tt.Intern(&UniquePointerType{Elem: I32})
	tt.Intern(Str)
	assert.Len(t, tt.All(), 1, "Str has no type parameters and is never registered; only the one distinct unique_ptr is")
}
