package scylla

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type Options struct {
	Hosts             []string
	Keyspace          string
	Username          string
	Password          string
	Consistency       gocql.Consistency
	ReplicationFactor int
	Timeout           time.Duration
}

// NewSession ensures the keyspace and journal table exist and returns a keyspace session.
func NewSession(ctx context.Context, opts Options, logger *slog.Logger) (*gocql.Session, error) {
	if !keyspacePattern.MatchString(opts.Keyspace) {
		return nil, fmt.Errorf("invalid keyspace name: %s", opts.Keyspace)
	}
	if opts.ReplicationFactor <= 0 {
		opts.ReplicationFactor = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	baseSession, err := newCluster(opts, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to scylla: %w", err)
	}
	defer baseSession.Close()
	if err := ensureKeyspace(ctx, baseSession, opts); err != nil {
		return nil, err
	}

	session, err := newCluster(opts, opts.Keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to keyspace %s: %w", opts.Keyspace, err)
	}
	if err := ensureTables(ctx, session, opts); err != nil {
		session.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("scylla connected", "hosts", opts.Hosts, "keyspace", opts.Keyspace)
	}
	return session, nil
}

func newCluster(opts Options, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(opts.Hosts...)
	cluster.Timeout = opts.Timeout
	cluster.ConnectTimeout = opts.Timeout
	cluster.Keyspace = keyspace
	if opts.Consistency != 0 {
		cluster.Consistency = opts.Consistency
	}
	if opts.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		}
	}
	return cluster
}

func ensureKeyspace(ctx context.Context, session *gocql.Session, opts Options) error {
	cql := fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		opts.Keyspace, opts.ReplicationFactor,
	)
	if err := session.Query(cql).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create keyspace: %w", err)
	}
	return nil
}

func ensureTables(ctx context.Context, session *gocql.Session, opts Options) error {
	journal := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.booking_journal (
	booking_id text,
	at timestamp,
	event_id text,
	event text,
	from_status text,
	to_status text,
	actor text,
	PRIMARY KEY (booking_id, at, event_id)
) WITH CLUSTERING ORDER BY (at ASC, event_id ASC);`, opts.Keyspace)
	if err := session.Query(journal).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create booking_journal table: %w", err)
	}
	return nil
}

func ParseConsistency(raw string) (gocql.Consistency, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "quorum":
		return gocql.Quorum, nil
	case "one":
		return gocql.One, nil
	case "local_quorum", "localquorum":
		return gocql.LocalQuorum, nil
	case "all":
		return gocql.All, nil
	default:
		return gocql.Quorum, fmt.Errorf("unsupported consistency: %s", raw)
	}
}
