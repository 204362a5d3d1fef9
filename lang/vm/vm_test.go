package vm

import (
	"bytes"
	"testing"

	"github.com/mna/vela/lang/compiler"
	"github.com/mna/vela/lang/diag"
	"github.com/mna/vela/lang/parser"
	"github.com/mna/vela/lang/runtime"
	"github.com/mna/vela/lang/token"
	"github.com/stretchr/testify/require"
)

// run lexes, parses and compiles src, then executes the resulting program
// on a fresh VM and returns its captured stdout. It fails the test outright
// on any diagnostic or runtime exception, matching the §8 scenarios' "this
// program runs cleanly to this output" shape.
func run(t *testing.T, src string) string {
	t.Helper()

	var buf bytes.Buffer
	runtime.SetOutput(&buf)

	fset := token.NewFileSet()
	file := fset.AddFile("test.vl", len(src))

	var errs diag.List
	block := parser.Parse("test.vl", []byte(src), &errs)
	require.False(t, errs.HasErrors(), "parse errors: %v", errs.Errors())

	prog := compiler.Compile(file, block, &errs)
	require.False(t, errs.HasErrors(), "compile errors: %v", errs.Errors())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	m := New(prog, cfg)
	require.NoError(t, m.Run())
	require.NoError(t, runtime.Flush())
	require.Equal(t, 0, m.sp, "a well-formed program's Run should leave sp at 0")

	return buf.String()
}

// TestEndToEnd exercises the six concrete scenarios.
func TestEndToEnd(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "arithmetic precedence",
			src:  `using core; println(1 + 2 * 3)`,
			want: "7\n",
		},
		{
			name: "string concatenation",
			src:  `using core; let mut s = "hi"; s = s + "!"; println(s)`,
			want: "hi!\n",
		},
		{
			name: "recursive fibonacci",
			src:  `using core; func fib(n:int)->int { if n<2 {return n}; return fib(n-1)+fib(n-2) }; println(fib(10))`,
			want: "55\n",
		},
		{
			name: "array length",
			src:  `using core; let a = [1,2,3]; println(a.length())`,
			want: "3\n",
		},
		{
			name: "class with getters",
			src:  `using core; type Pt(x:int,y:int){ @Getter let x = x; @Getter let y = y }; let p = Pt(3,4); println(p.getX() + p.getY())`,
			want: "7\n",
		},
		{
			name: "option some/isSome/unwrap",
			src:  `using core; let mut opt = Some(5); if opt.isSome() { println(opt.unwrap()) }`,
			want: "5\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, run(t, tc.src))
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	t.Run("integer division by zero", func(t *testing.T) {
		src := `using core; let a = 1; let b = 0; println(a / b)`

		fset := token.NewFileSet()
		file := fset.AddFile("test.vl", len(src))

		var errs diag.List
		block := parser.Parse("test.vl", []byte(src), &errs)
		require.False(t, errs.HasErrors())

		prog := compiler.Compile(file, block, &errs)
		require.False(t, errs.HasErrors())

		cfg, err := LoadConfig()
		require.NoError(t, err)

		var buf bytes.Buffer
		runtime.SetOutput(&buf)

		m := New(prog, cfg)
		err = m.Run()
		require.Error(t, err)

		var exc *Exception
		require.ErrorAs(t, err, &exc)
	})
}

func TestGCReclaimsUnreachableObjects(t *testing.T) {
	// Allocate 50 arrays, well past the default InitialGCThreshold of 8, so
	// collections run while the loop is still using its current array. The
	// test checks the program's result (3 elements counted per iteration,
	// 150 in all) and, through run, that sp is back to 0; it does not
	// inspect liveCount or the heap list directly.
	src := `using core
func touch(n:int)->int {
  let mut i = 0
  let mut total = 0
  while i < n {
    let a = [i, i+1, i+2]
    total = total + a.length()
    i = i + 1
  }
  return total
}
println(touch(50))`

	got := run(t, src)
	require.Equal(t, "150\n", got)
}
