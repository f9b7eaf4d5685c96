// Package publish uploads generated reports to an FTP drop directory,
// typically a shared folder the municipality office already watches.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jlaffaye/ftp"
)

const dialTimeout = 10 * time.Second

// Config holds the FTP destination. Publishing is disabled when Addr is
// empty.
type Config struct {
	Addr     string // host:port
	User     string
	Password string
	Dir      string // remote directory, optional
}

func (c Config) Enabled() bool {
	return c.Addr != ""
}

// Upload stores data under fileName on the configured server. The
// connection is made fresh per upload; reports are generated rarely
// enough that holding a session open is not worth the bookkeeping.
func Upload(ctx context.Context, cfg Config, fileName string, data []byte) error {
	conn, err := ftp.Dial(cfg.Addr,
		ftp.DialWithTimeout(dialTimeout),
		ftp.DialWithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	defer conn.Quit()

	user := cfg.User
	if user == "" {
		user = "anonymous"
	}
	if err := conn.Login(user, cfg.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if cfg.Dir != "" {
		if err := conn.ChangeDir(cfg.Dir); err != nil {
			return fmt.Errorf("change dir %s: %w", cfg.Dir, err)
		}
	}

	if err := conn.Stor(fileName, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store %s: %w", fileName, err)
	}
	return nil
}
