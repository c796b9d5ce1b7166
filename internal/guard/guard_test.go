package guard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerr "sqlagent/cli/internal/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"surrounding whitespace", "  \n\tSELECT 1 \n", "SELECT 1"},
		{"one trailing semicolon", "SELECT 1;", "SELECT 1"},
		{"semicolon then whitespace", "SELECT 1 ;  ", "SELECT 1"},
		{"only one semicolon stripped", "SELECT 1;;", "SELECT 1;"},
		{"internal semicolon kept", "SELECT 1; SELECT 2;", "SELECT 1; SELECT 2"},
		{"case and inner spacing kept", "select   *\nFROM t", "select   *\nFROM t"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	v, err := NewValidator(nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		query    string
		wantKind qerr.Kind
		wantMsg  string
	}{
		{"simple select", "SELECT * FROM customers", "", ""},
		{"lowercase select", "select name from customers where region = 'EU'", "", ""},
		{"leading whitespace", "  \n SELECT 1", "", ""},
		{"join", "SELECT c.name, o.total_cents FROM customers c JOIN orders o ON o.customer_id = c.id", "", ""},
		{"identifier containing keyword", "SELECT updated_at, created_at FROM t", "", ""},
		{"keyword inside identifier suffix", "SELECT last_update FROM t", "", ""},

		{"delete", "DELETE FROM customers", qerr.WriteOperation, "not allowed"},
		{"lowercase drop", "drop table customers", qerr.WriteOperation, "blocked: DROP"},
		{"mixed case insert", "InSeRt INTO t VALUES (1)", qerr.WriteOperation, "blocked: INSERT"},
		{"write hidden in select", "SELECT * FROM t WHERE x IN (DELETE FROM y)", qerr.WriteOperation, ""},
		{"replace function is blocked", "SELECT REPLACE(name, 'a', 'b') FROM t", qerr.WriteOperation, "blocked: REPLACE"},

		{"two selects", "SELECT * FROM customers; SELECT * FROM products", qerr.MultipleStatements, "multiple statements"},
		{"doubled terminator", "SELECT 1;", qerr.MultipleStatements, ""},

		{"pragma", "PRAGMA table_info(customers)", qerr.NotASelect, "only SELECT"},
		{"cte", "WITH x AS (SELECT 1) SELECT * FROM x", qerr.NotASelect, ""},
		{"empty", "", qerr.NotASelect, ""},
		{"selectx is not select", "SELECTX 1", qerr.NotASelect, ""},

		{"union select", "SELECT name FROM customers UNION SELECT email FROM customers", qerr.DangerousPattern, "UNION SELECT"},
		{"union across lines", "SELECT 1\nUNION ALL\nselect 2", qerr.DangerousPattern, ""},
		{"exec", "SELECT exec FROM t", qerr.DangerousPattern, "EXEC"},
		{"sp_ prefix", "SELECT sp_help FROM t", qerr.DangerousPattern, ""},
		{"xp_ prefix", "SELECT * FROM t WHERE XP_CMDSHELL = 1", qerr.DangerousPattern, ""},
		{"bare sp_", "SELECT sp_ FROM t", qerr.DangerousPattern, "sp_"},
		{"bare xp_", "SELECT 1 FROM xp_", qerr.DangerousPattern, "xp_"},
		{"trailing line comment", "SELECT * FROM customers -- all of them", qerr.DangerousPattern, "line comment"},
		{"line comment mid query", "SELECT *\n-- note\nFROM customers", qerr.DangerousPattern, "line comment"},
		{"unclosed block comment", "SELECT * FROM customers /* note", qerr.DangerousPattern, "block comment"},
		{"closed block comment", "SELECT /* cols */ * FROM customers", qerr.DangerousPattern, "block comment"},
		{"sp inside word is fine", "SELECT wasp_count FROM t", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.query)
			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantKind == "" {
				assert.True(t, got.Valid())
				assert.NoError(t, got.Err())
				return
			}
			assert.False(t, got.Valid())
			assert.Equal(t, tt.wantKind, qerr.KindOf(got.Err()))
			if tt.wantMsg != "" {
				assert.Contains(t, got.Reason, tt.wantMsg)
			}
		})
	}
}

func TestValidateCheckOrder(t *testing.T) {
	v, err := NewValidator(nil)
	require.NoError(t, err)

	// Blocklist wins over multiple statements and over not-a-select.
	assert.Equal(t, qerr.WriteOperation, v.Validate("SELECT 1; DROP TABLE t").Kind)
	assert.Equal(t, qerr.WriteOperation, v.Validate("UPDATE t SET a = 1").Kind)
	// Multiple statements wins over not-a-select.
	assert.Equal(t, qerr.MultipleStatements, v.Validate("PRAGMA x; SELECT 1").Kind)
	// Not-a-select wins over dangerous patterns.
	assert.Equal(t, qerr.NotASelect, v.Validate("EXEC sp_who").Kind)
}

func TestValidateCustomBlocklist(t *testing.T) {
	v, err := NewValidator([]string{" attach ", "", "vacuum"})
	require.NoError(t, err)

	assert.Equal(t, qerr.WriteOperation, v.Validate("SELECT 1 FROM t WHERE Attach = 1").Kind)
	// DELETE is no longer blocked, so the SELECT-only check catches it.
	assert.Equal(t, qerr.NotASelect, v.Validate("DELETE FROM t").Kind)

	_, err = NewValidator([]string{"  "})
	assert.Error(t, err)
}

func TestShape(t *testing.T) {
	s, err := NewShaper(200)
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"unbounded select", "SELECT * FROM customers", "SELECT * FROM customers LIMIT 200"},
		{"existing limit", "SELECT * FROM customers LIMIT 5", "SELECT * FROM customers LIMIT 5"},
		{"lowercase limit", "select * from customers limit 5", "select * from customers limit 5"},
		{"count", "SELECT COUNT(*) FROM orders", "SELECT COUNT(*) FROM orders"},
		{"group by", "SELECT region, 1 FROM customers GROUP  BY region", "SELECT region, 1 FROM customers GROUP  BY region"},
		{"sum", "select sum(total_cents) from orders", "select sum(total_cents) from orders"},
		{"avg", "SELECT AVG(price_cents) FROM products", "SELECT AVG(price_cents) FROM products"},
		{"max", "SELECT MAX(price_cents) FROM products", "SELECT MAX(price_cents) FROM products"},
		{"min", "SELECT MIN(price_cents) FROM products", "SELECT MIN(price_cents) FROM products"},
		{"distinct", "SELECT DISTINCT region FROM customers", "SELECT DISTINCT region FROM customers"},
		{"column named limits", "SELECT limits FROM t", "SELECT limits FROM t LIMIT 200"},
		{"count with space is not aggregate", "SELECT count (*) FROM t", "SELECT count (*) FROM t LIMIT 200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Shape(tt.query))
		})
	}
}

func TestShapeIdempotent(t *testing.T) {
	s, err := NewShaper(50)
	require.NoError(t, err)

	for _, q := range []string{
		"SELECT * FROM customers",
		"SELECT * FROM t LIMIT 1",
		"SELECT COUNT(*) FROM orders",
		"SELECT name FROM products WHERE category = 'x'",
	} {
		once := s.Shape(q)
		assert.Equal(t, once, s.Shape(once), q)
	}
}

func TestNewShaperRejectsNonPositive(t *testing.T) {
	_, err := NewShaper(0)
	assert.Error(t, err)
	_, err = NewShaper(-1)
	assert.Error(t, err)
}

func TestCheckLength(t *testing.T) {
	assert.NoError(t, CheckLength(strings.Repeat("a", MaxQueryLength)))

	err := CheckLength(strings.Repeat("a", MaxQueryLength+1))
	require.Error(t, err)
	assert.Equal(t, qerr.InputTooLong, qerr.KindOf(err))

	// Characters, not bytes.
	assert.NoError(t, CheckLength(strings.Repeat("é", MaxQueryLength)))
}

func TestPrepare(t *testing.T) {
	g, err := New(nil, 200)
	require.NoError(t, err)

	p, err := g.Prepare("  SELECT * FROM customers;  ")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM customers", p.Normalized)
	assert.Equal(t, "SELECT * FROM customers LIMIT 200", p.Shaped)
	assert.True(t, p.Verdict.Valid())
	assert.Equal(t, "valid", p.Verdict.String())

	p, err = g.Prepare("DELETE FROM customers")
	require.Error(t, err)
	assert.Equal(t, qerr.WriteOperation, qerr.KindOf(err))
	assert.Empty(t, p.Shaped)
	assert.Equal(t, "write_operation", p.Verdict.String())
	assert.Contains(t, qerr.Caller(err), "ERROR: ")
	assert.Contains(t, qerr.Caller(err), "not allowed")

	_, err = g.Prepare("SELECT * FROM customers; SELECT * FROM products;")
	require.Error(t, err)
	assert.Equal(t, qerr.MultipleStatements, qerr.KindOf(err))

	_, err = g.Prepare("SELECT " + strings.Repeat("1", MaxQueryLength))
	assert.Equal(t, qerr.InputTooLong, qerr.KindOf(err))

	assert.Equal(t, 200, g.MaxRows())
	assert.Contains(t, g.BlockedKeywords(), "DELETE")
}

func TestPrepareCaseInsensitive(t *testing.T) {
	g, err := New(nil, 10)
	require.NoError(t, err)

	for _, q := range []string{"delete from t", "DELETE FROM T", "DeLeTe FrOm t"} {
		_, err := g.Prepare(q)
		assert.Equal(t, qerr.WriteOperation, qerr.KindOf(err), q)
	}
	for _, q := range []string{"select 1 from t", "SELECT 1 FROM t", "SeLeCt 1 FrOm t"} {
		p, err := g.Prepare(q)
		assert.NoError(t, err, q)
		assert.True(t, strings.HasSuffix(p.Shaped, " LIMIT 10"), q)
	}
}
