package transducer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hargabyte/cevents/internal/parser"
)

func TestCheckCleanProgram(t *testing.T) {
	r, err := newTransducer(t).Check([]byte(program))
	require.NoError(t, err)

	assert.True(t, r.OK(), "problems: %v", r.Problems)
	assert.Equal(t, len(events(t, program)), r.Events)
	assert.Equal(t, 2*r.Events, r.Allocated)
	assert.NotEmpty(t, r.Functions)
}

func TestCheckFunctions(t *testing.T) {
	r, err := newTransducer(t).Check([]byte("void f() {}\nint g(int a) { return a; }"))
	require.NoError(t, err)
	assert.Equal(t, []string{"void f", "int g a"}, r.Functions)
}

func TestCheckReturnsTransductionErrors(t *testing.T) {
	_, err := newTransducer(t).Check([]byte("int f( {"))
	var pe *parser.ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = newTransducer(t).Check([]byte("int *p;"))
	assert.ErrorIs(t, err, ErrStructure)
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.c")
	require.NoError(t, os.WriteFile(good, []byte("void f() {}"), 0644))
	bad := filepath.Join(dir, "bad.c")
	require.NoError(t, os.WriteFile(bad, []byte("int main() { return 1 }"), 0644))

	tr := newTransducer(t)
	r, err := tr.CheckFile(good)
	require.NoError(t, err)
	assert.True(t, r.OK(), "problems: %v", r.Problems)
	assert.Equal(t, []string{"void f"}, r.Functions)

	_, err = tr.CheckFile(bad)
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, bad, pe.File)
	assert.Contains(t, err.Error(), bad)
}
