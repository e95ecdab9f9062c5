package macros

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirkon/gomacros/internal/config"
	"github.com/sirkon/gomacros/internal/macrules"
)

func TestGenericTestsFunc(t *testing.T) {
	res := expandSource(t, config.Default(), "sum_test.go", `package sample

import "testing"

//gomacros:generictests types(int, "float64")
func testSum[T int | float64](t *testing.T) {}
`)
	require.Len(t, res, 1)
	require.Empty(t, res[0].res.Diagnostics)
	require.Len(t, res[0].res.Fragments, 2)

	first := res[0].res.Fragments[0]
	require.Equal(t, "TestSum_Int", first.Name)
	require.Equal(t, TargetTest, first.Target)
	require.Equal(t, []Import{{Alias: "testing", Path: "testing"}}, first.Imports)
	require.Equal(t, `func TestSum_Int(t *testing.T) {
	testSum[int](t)
}
`, first.Code)
	require.Equal(t, "TestSum_Float64", res[0].res.Fragments[1].Name)
}

func TestGenericTestsAttributes(t *testing.T) {
	res := expandSource(t, config.Default(), "sum_test.go", `package sample

import (
	"testing"
)

//gomacros:generictests types("int, string"), parallel, panics
func testPair[K comparable, V any](t *testing.T) {}

//gomacros:generictests types(int), skip("too slow")
func slow[T any](t *testing.T) {}
`)
	require.Len(t, res, 2)

	require.Empty(t, res[0].res.Diagnostics)
	require.Equal(t, `func TestPair_IntString(t *testing.T) {
	t.Parallel()
	defer func() {
		if r := recover(); r == nil {
			t.Error("testPair[int, string] did not panic")
		}
	}()
	testPair[int, string](t)
}
`, res[0].res.Fragments[0].Code)

	require.Empty(t, res[1].res.Diagnostics)
	require.Equal(t, `func TestSlow_Int(t *testing.T) {
	t.Skip("too slow")
	slow[int](t)
}
`, res[1].res.Fragments[0].Code)
}

func TestGenericTestsParallelFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.GenericTests.Parallel = true

	src := `package sample

import "testing"

//gomacros:generictests types(int)
func testOn[T any](t *testing.T) {}

//gomacros:generictests types(int), parallel(false)
func testOff[T any](t *testing.T) {}
`
	res := expandSource(t, cfg, "sample_test.go", src)
	require.Len(t, res, 2)
	assert.Contains(t, res[0].res.Fragments[0].Code, "t.Parallel()")
	assert.NotContains(t, res[1].res.Fragments[0].Code, "t.Parallel()")
}

func TestGenericTestsPackage(t *testing.T) {
	res := expandSource(t, config.Default(), "sample_test.go", `//gomacros:generictests types(int, string)
package sample_test

import (
	"testing"

	tt "testing"
)

func testFirst[T any](t *testing.T) {}

// Not a test name.
func helper[T any](t *testing.T) {}

// Not generic.
func testPlain(t *testing.T) {}

// Wrong shape.
func testBench[T any](b *testing.B) {}

//gomacros:generictests types(bool)
func testOwn[T any](t *testing.T) {}

func testSecond[T any](t *tt.T) {}
`)
	require.Len(t, res, 2)

	pkg := res[0].res
	require.Empty(t, pkg.Diagnostics)

	var names []string
	for _, frag := range pkg.Fragments {
		names = append(names, frag.Name)
		require.Equal(t, TargetExternalTest, frag.Target)
	}
	require.Equal(t, []string{
		"TestFirst_Int",
		"TestFirst_String",
		"TestSecond_Int",
		"TestSecond_String",
	}, names)

	own := res[1].res
	require.Empty(t, own.Diagnostics)
	require.Len(t, own.Fragments, 1)
	require.Equal(t, "TestOwn_Bool", own.Fragments[0].Name)
}

func TestGenericTestsPackageWithoutCandidates(t *testing.T) {
	res := expandSource(t, config.Default(), "sample_test.go", `//gomacros:generictests types(int)
package sample

import "testing"

func testPlain(t *testing.T) {}
`)
	require.Len(t, res, 1)
	require.Equal(t, []macrules.Code{macrules.NothingToGenerate()}, codes(res[0].res.Diagnostics))
	require.Nil(t, res[0].res.Fragments)
}

func TestGenericTestsArity(t *testing.T) {
	res := expandSource(t, config.Default(), "sample_test.go", `package sample

import "testing"

//gomacros:generictests types(int, "int, string", "[]byte, map[int]bool, bool")
func testPair[K comparable, V any](t *testing.T) {}
`)
	require.Len(t, res, 1)

	ds := res[0].res.Diagnostics
	require.Equal(t, []macrules.Code{macrules.InvalidOptionValue(), macrules.InvalidOptionValue()}, codes(ds))
	assert.Contains(t, ds[0].Message, "got 1 type arguments")
	assert.Contains(t, ds[1].Message, "got 3 type arguments")
	require.Nil(t, res[0].res.Fragments)
}
