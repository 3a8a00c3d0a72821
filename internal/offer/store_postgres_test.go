package offer

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// recordingDriver captures executed statements so tests can check the SQL
// shape without a live database.
type recordingDriver struct {
	mu    sync.Mutex
	execs []capturedExec
}

type capturedExec struct {
	query string
	args  int
}

func (d *recordingDriver) Open(string) (driver.Conn, error) {
	return &recordingConn{d: d}, nil
}

func (d *recordingDriver) last() capturedExec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.execs[len(d.execs)-1]
}

type recordingConn struct {
	d *recordingDriver
}

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *recordingConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.execs = append(c.d.execs, capturedExec{query: query, args: len(args)})
	return driver.RowsAffected(1), nil
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

func highestPlaceholder(query string) int {
	max := 0
	for _, m := range placeholderPattern.FindAllStringSubmatch(query, -1) {
		n, _ := strconv.Atoi(m[1])
		if n > max {
			max = n
		}
	}
	return max
}

// TestCreateStatementBindsAllColumns pins the INSERT shape: every bound
// argument has a placeholder and the monthly amount lands in its own column
// right after the proposed terms, so nothing shifts left on scan.
func TestCreateStatementBindsAllColumns(t *testing.T) {
	recorder := &recordingDriver{}
	sql.Register("offer-recording", recorder)
	db, err := sql.Open("offer-recording", "")
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgres(db)
	now := time.Now().UTC()
	o := Offer{
		ID:            id.OfferID(uuid.New()),
		ProviderID:    id.ProviderID(uuid.New()),
		AnonymousID:   "AN-statement001",
		Sector:        id.SectorEnergy,
		Proposed:      map[string]float64{"renewablePercentage": 80},
		MonthlyAmount: 42.50,
		Status:        StatusQualified,
		SubmittedAt:   now,
		EvaluatedAt:   now,
		ExpiresAt:     now.Add(72 * time.Hour),
	}
	require.NoError(t, store.Create(context.Background(), o))

	captured := recorder.last()
	require.Equal(t, captured.args, highestPlaceholder(captured.query),
		"INSERT must bind exactly as many args as placeholders")
	require.Regexp(t, `proposed,\s*monthly_amount,\s*status`, captured.query,
		"monthly_amount sits between proposed and status")
}
