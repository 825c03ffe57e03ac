package mariadb

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
)

// MariaDBContainer represents a MariaDB container for testing
type MariaDBContainer struct {
	testcontainers.Container
	Config Config
	Host   string
	Port   string
}

// setupMariaDBContainer starts a MariaDB server and waits until it accepts
// connections for the test user.
func setupMariaDBContainer(ctx context.Context) (*MariaDBContainer, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"3306/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "mariadb:11.4",
		Env: map[string]string{
			"MARIADB_ROOT_PASSWORD": "rootpass",
			"MARIADB_USER":          "testuser",
			"MARIADB_PASSWORD":      "testpass",
			"MARIADB_DATABASE":      "testdb",
		},
		ExposedPorts: []string{"3306/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(60 * time.Second),
	}

	mariadbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mariadb container: %w", err)
	}

	host, err := mariadbContainer.Host(ctx)
	if err != nil {
		_ = mariadbContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := mariadbContainer.MappedPort(ctx, "3306")
	if err != nil {
		_ = mariadbContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}
	portStr = mappedPort.Port()

	cfg := Config{
		Name: "integration",
		Connection: Connection{
			Host:      host,
			Port:      portStr,
			User:      "testuser",
			Password:  "testpass",
			DbName:    "testdb",
			ParseTime: true,
			Loc:       "UTC",
		},
		ConnectionDetails: ConnectionDetails{
			MaxOpenConns:   4,
			MaxIdleConns:   2,
			AcquireTimeout: 5 * time.Second,
		},
	}

	if err := waitForMariaDBReady(cfg, 60*time.Second); err != nil {
		_ = mariadbContainer.Terminate(ctx)
		return nil, fmt.Errorf("mariadb container not ready: %w", err)
	}

	return &MariaDBContainer{
		Container: mariadbContainer,
		Config:    cfg,
		Host:      host,
		Port:      portStr,
	}, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func(addr net.Listener) {
		_ = addr.Close()
	}(addr)
	return addr.Addr().(*net.TCPAddr).Port, nil
}

// waitForMariaDBReady pings the server until the entrypoint finished its
// initialization restart.
func waitForMariaDBReady(cfg Config, timeout time.Duration) error {
	dsn, err := cfg.dsn()
	if err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		db, err := sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("timed out after %s", timeout)
}

func TestMariaDBWithFXModule(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	mariadbContainer, err := setupMariaDBContainer(ctx)
	require.NoError(t, err)
	defer func() {
		_ = mariadbContainer.Terminate(ctx)
	}()

	forgetClient(t, mariadbContainer.Config.Identity())

	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	// register with the mocked logger before the module resolves the client
	Instance(mariadbContainer.Config, WithLogger(log))

	var client *MariaDB
	app := fxtest.New(t,
		fx.Provide(func() Config { return mariadbContainer.Config }),
		FXModule,
		fx.Populate(&client),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, err = client.Exec(ctx, "CREATE TABLE testdb.member ("+
		"member_uid VARCHAR(36) PRIMARY KEY,"+
		"nickname VARCHAR(64) NULL,"+
		"points INT NOT NULL DEFAULT 0)", nil, nil)
	require.NoError(t, err)

	t.Run("InsertAndQuery", func(t *testing.T) {
		res, err := client.Exec(ctx,
			"INSERT INTO testdb.member (member_uid, nickname, points) VALUES (:uid, :nickname, :points)",
			map[string]interface{}{"uid": "m-1", "nickname": "ann", "points": 10}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.RowsAffected)

		rows, err := client.Query(ctx,
			"SELECT member_uid AS memberUid, nickname, points FROM testdb.member WHERE member_uid=:uid",
			map[string]interface{}{"uid": "m-1"}, nil)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []byte("ann"), rows[0]["nickname"])
		assert.EqualValues(t, 10, rows[0]["points"])
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		_, err := client.Exec(ctx,
			"INSERT INTO testdb.member (member_uid) VALUES (:uid)",
			map[string]interface{}{"uid": "m-1"}, nil)
		require.Error(t, err)

		var myErr *mysql.MySQLError
		assert.ErrorAs(t, err, &myErr)
		assert.ErrorIs(t, TranslateError(err), ErrDuplicateKey)
	})

	t.Run("TransactionRollback", func(t *testing.T) {
		err := client.Transaction(ctx, func(tx *Conn) error {
			if _, err := tx.Exec(ctx, "UPDATE testdb.member SET points=:points WHERE member_uid=:uid",
				map[string]interface{}{"points": 99, "uid": "m-1"}); err != nil {
				return err
			}
			return fmt.Errorf("abort")
		})
		require.Error(t, err)

		rows, err := client.Query(ctx, "SELECT points FROM testdb.member WHERE member_uid=:uid",
			map[string]interface{}{"uid": "m-1"}, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 10, rows[0]["points"])
	})

	t.Run("TransactionCommitWithLock", func(t *testing.T) {
		err := client.Transaction(ctx, func(tx *Conn) error {
			rows, err := tx.Query(ctx, "SELECT points FROM testdb.member WHERE member_uid=:uid FOR UPDATE",
				map[string]interface{}{"uid": "m-1"})
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, "UPDATE testdb.member SET points=:points WHERE member_uid=:uid",
				map[string]interface{}{"points": rows[0]["points"].(int64) + 1, "uid": "m-1"})
			return err
		})
		require.NoError(t, err)

		rows, err := client.Query(ctx, "SELECT points FROM testdb.member WHERE member_uid=:uid",
			map[string]interface{}{"uid": "m-1"}, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 11, rows[0]["points"])
	})

	t.Run("NullValues", func(t *testing.T) {
		_, err := client.Exec(ctx,
			"INSERT INTO testdb.member (member_uid, nickname) VALUES (:uid, :nickname)",
			map[string]interface{}{"uid": "m-2", "nickname": nil}, nil)
		require.NoError(t, err)

		rows, err := client.Query(ctx, "SELECT nickname FROM testdb.member WHERE member_uid=:uid",
			map[string]interface{}{"uid": "m-2"}, nil)
		require.NoError(t, err)
		assert.Nil(t, rows[0]["nickname"])
	})
}
