package connlog

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// record is one line of the connectivity log:
//
//	tile_instance pip_qualified src_qualified dst_qualified multiplicity directional_flag
//
// Every column is one non-space token; the two counts are converted by parseLine.
type record struct {
	Tile         string `parser:"@Token"`
	Pip          string `parser:"@Token"`
	Src          string `parser:"@Token"`
	Dst          string `parser:"@Token"`
	Multiplicity string `parser:"@Token"`
	Directional  string `parser:"@Token"`
}

var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Token", Pattern: `[^\s]+`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
})

var lineParser = participle.MustBuild[record](
	participle.Lexer(lineLexer),
	participle.Elide("Whitespace"),
)
