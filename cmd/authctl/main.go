package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	myRedisStore "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/db/redis"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/client"
	lg "github.com/Miraines/MoonyAndStarry/session-service/internal/infra/log"
	"github.com/redis/go-redis/v9"
)

const usage = `usage: authctl [flags] <command> [command flags]

commands:
  register -email E -password P -first F -last L
  login    -email E -password P
  me
  status
  logout

flags:
`

func main() {
	var (
		serverURL = flag.String("server", envOr("AUTHCTL_SERVER", "http://localhost:8080"), "session service base URL")
		storePath = flag.String("store", defaultStorePath(), "session file; ignored when -redis-addr is set")
		redisAddr = flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "keep the session in redis instead of a file")
		namespace = flag.String("namespace", "authctl", "redis key namespace")
		timeout   = flag.Duration("timeout", client.DefaultTimeout, "per request timeout")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	zapLog := lg.Must(level)
	defer zapLog.Sync()

	var storage client.Storage
	if *redisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer rc.Close()
		storage = myRedisStore.NewRedisSessionStore(rc, *namespace, 0)
	} else {
		storage = client.NewFileStorage(*storePath)
	}

	c := client.New(*serverURL, client.NewTokenStore(storage),
		client.WithTimeout(*timeout),
		client.WithLogger(zapLog),
		client.WithSessionExpired(func() {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		}),
	)
	sess := client.NewSession(c)

	ctx := context.Background()
	if err := sess.Load(ctx); err != nil {
		fatal(err)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", os.Getenv("AUTHCTL_PASSWORD"), "password")
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		_ = fs.Parse(args)

		p, err := sess.Register(ctx, dto.RegisterDTO{
			Email: *email, Password: *password, FirstName: *first, LastName: *last,
		})
		if err != nil {
			fatal(err)
		}
		printJSON(p)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", os.Getenv("AUTHCTL_PASSWORD"), "password")
		_ = fs.Parse(args)

		p, err := sess.Login(ctx, *email, *password)
		if err != nil {
			fatal(err)
		}
		printJSON(p)

	case "me":
		if !sess.IsAuthenticated() {
			fatal(client.ErrNotLoggedIn)
		}
		p, err := c.Me(ctx)
		if err != nil {
			fatal(err)
		}
		printJSON(p)

	case "status":
		if u := sess.User(); u != nil {
			fmt.Printf("logged in as %s (id %d)\n", u.Email, u.ID)
		} else {
			fmt.Println("logged out")
		}

	case "logout":
		if err := sess.Logout(ctx); err != nil {
			fatal(err)
		}
		fmt.Println("logged out")

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}

func fatal(err error) {
	if apiErr, ok := client.AsAPIError(err); ok && apiErr.Message != "" {
		fmt.Fprintln(os.Stderr, "error:", apiErr.Message)
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "authctl", "session.json")
}
