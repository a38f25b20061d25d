package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ts4z/chipclock/config"
)

// ErrFakeConnector is returned by Connect when the configuration asks for
// in-memory storage instead of a database.
var ErrFakeConnector = errors.New("sql_connector is fake, no database")

type cloudSettings struct {
	dbUser,
	dbPwd,
	dbName,
	instanceConnectionName string
	usePrivate bool
}

func (s *cloudSettings) load() error {
	s.dbUser = config.DBUser()
	s.dbPwd = config.DBPassword()
	s.dbName = config.DBName()
	s.instanceConnectionName = config.InstanceConnectionName() // e.g. 'project:region:instance'
	s.usePrivate = config.PrivateIP()

	unset := []string{}
	for k, v := range map[string]string{
		"db_user":                  s.dbUser,
		"db_pass":                  s.dbPwd,
		"db_name":                  s.dbName,
		"instance_connection_name": s.instanceConnectionName,
	} {
		if v == "" {
			unset = append(unset, k)
		}
	}
	if len(unset) != 0 {
		return fmt.Errorf("cloudsqlconn: unset settings: %+v", unset)
	}
	return nil
}

func connectWithConnector(ctx context.Context) (*sql.DB, error) {
	env := &cloudSettings{}
	if err := env.load(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("user=%s password=%s database=%s", env.dbUser, env.dbPwd, env.dbName)
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	var opts []cloudsqlconn.Option
	if env.usePrivate {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	// Refresh on demand rather than on a schedule; background refreshes get
	// throttled on serverless hosts.
	opts = append(opts, cloudsqlconn.WithLazyRefresh())
	d, err := cloudsqlconn.NewDialer(ctx, opts...)
	if err != nil {
		return nil, err
	}
	cfg.DialFunc = func(ctx context.Context, network, instance string) (net.Conn, error) {
		return d.Dial(ctx, env.instanceConnectionName)
	}
	dbURI := stdlib.RegisterConnConfig(cfg)
	dbPool, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	return dbPool, nil
}

func connectWithPgx(_ context.Context) (*sql.DB, error) {
	url := config.DBURL()
	log.Printf("Connecting to database at %s", url)
	if url == "" {
		return nil, errors.New("database URL is empty")
	}
	return sql.Open("pgx", url)
}

// Connect opens the database named by the configuration.
func Connect(ctx context.Context) (*sql.DB, error) {
	factories := map[string]func(context.Context) (*sql.DB, error){
		"connector": connectWithConnector,
		"pgx":       connectWithPgx,
	}
	name := config.SQLConnector()
	if name == "fake" {
		return nil, ErrFakeConnector
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown value for sql_connector: %q", name)
	}
	return factory(ctx)
}
