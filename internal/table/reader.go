package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
)

// Load reads an annotation table from path.
// Supports both plain and gzipped tables; use "-" for stdin.
func Load(path string) (*Table, error) {
	if path == "-" {
		return Read(os.Stdin, "stdin")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation table: %w", err)
	}
	defer file.Close()

	return Read(file, filepath.Base(path))
}

// Read loads a table from r. name is recorded as the table's source name.
func Read(r io.Reader, name string) (*Table, error) {
	br := bufio.NewReader(r)

	// Check for gzip magic number (0x1f, 0x8b)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := pgzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
		name = strings.TrimSuffix(name, ".gz")
	}

	p := &parser{reader: br}
	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	t := &Table{Name: name, Schema: p.schema}
	for {
		row, err := p.next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		row.Ordinal = len(t.Rows)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

type parser struct {
	reader     *bufio.Reader
	lineNumber int
	schema     *Schema
}

// readLine returns the next line without its terminator, or io.EOF.
func (p *parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", fmt.Errorf("read line %d: %w", p.lineNumber+1, err)
		}
		if line == "" {
			return "", io.EOF
		}
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// parseHeader finds the header line, skipping blank and "##" meta lines.
func (p *parser) parseHeader() error {
	for {
		line, err := p.readLine()
		if err == io.EOF {
			return &ParseError{Line: p.lineNumber, Message: "no header line found"}
		}
		if err != nil {
			return err
		}
		if line == "" || strings.HasPrefix(line, "##") {
			continue
		}

		schema, err := NewSchema(strings.Split(line, "\t"))
		if err != nil {
			return err
		}
		p.schema = schema
		return nil
	}
}

// next parses the next data line. Returns nil, nil at end of input.
func (p *parser) next() (*Row, error) {
	for {
		line, err := p.readLine()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}
		return p.parseLine(line)
	}
}

func (p *parser) parseLine(line string) (*Row, error) {
	fields := strings.Split(line, "\t")
	width := p.schema.Width()
	if len(fields) > width {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at most %d columns, found %d", width, len(fields)),
		}
	}
	if len(fields) <= colAlt {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", numKeyColumns, len(fields)),
		}
	}
	// Short rows are padded; missing cells read as empty.
	for len(fields) < width {
		fields = append(fields, "")
	}

	pos, err := strconv.ParseInt(fields[colStart], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid start position: %s", fields[colStart]),
		}
	}

	return &Row{
		Line: p.lineNumber,
		Key: VariantKey{
			Chrom: fields[colChrom],
			Pos:   pos,
			Ref:   fields[colRef],
			Alt:   fields[colAlt],
		},
		Fields: fields,
	}, nil
}

// ParseError represents an error in a table data line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("table parse error at line %d: %s", e.Line, e.Message)
}
