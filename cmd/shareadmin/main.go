// Command shareadmin is the administration CLI for a shareadmin server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"shareadmin/client"
	"shareadmin/pkg/config"
	"shareadmin/pkg/deviceid"
	"shareadmin/pkg/logger"
	"shareadmin/pkg/protocol"
	"shareadmin/pkg/session"
)

func main() {
	configPath := flag.String("config", "", "config file path (optional)")
	serverURL := flag.String("server", "", "server base URL (overrides config)")
	cacheDir := flag.String("cache-dir", "", "cache directory (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = deviceid.DefaultCacheDir()
	}
	logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	c := client.New(cfg.ServerURL, cfg.CacheDir)
	ctx := context.Background()

	var cmdErr error
	switch args[0] {
	case "login":
		cmdErr = runLogin(ctx, c, args[1:])
	case "logout":
		cmdErr = c.Logout(ctx)
	case "passwd":
		cmdErr = runPasswd(ctx, c)
	case "sessions":
		cmdErr = runSessions(ctx, c, args[1:])
	case "users":
		cmdErr = runUsers(ctx, c, args[1:])
	case "folders":
		cmdErr = runFolders(ctx, c, args[1:])
	case "device":
		cmdErr = runDevice(c, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: shareadmin [flags] <command>

Commands:
  login <email>            Log in to the server
  logout                   Log out and discard the local session
  passwd                   Change the account password
  sessions                 List active sessions
  sessions close-others    Close every session except this device's
  sessions watch           Stream live session events
  users list               List accounts (admin)
  users add <email>        Create an account (admin)
  users rm <id>            Delete an account (admin)
  folders list             List shared folders
  folders add <name>       Create a shared folder
  folders rm <id>          Delete a folder
  device show              Print this installation's device identifier
  device reset             Discard the device identifier

Flags:
`)
	flag.PrintDefaults()
}

func prompt(label string) string {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func runLogin(ctx context.Context, c *client.Client, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		email = prompt("Email")
	}
	pw := prompt("Password")

	res, err := c.Login(ctx, email, pw)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case session.OutcomeAuthenticated:
		fmt.Printf("Logged in as %s (%s)\n", res.Name, res.Role)
		return nil
	case session.OutcomeSessionLimit:
		// Evicting other sessions needs a token this refusal did not grant;
		// freeing a slot has to happen from a logged-in device.
		fmt.Fprintf(os.Stderr, "%s (%d of %d devices in use)\n", res.Message, res.ActiveSessions, res.MaxSessions)
		return fmt.Errorf("run 'shareadmin sessions close-others' from a logged-in device to free a slot")
	case session.OutcomeInvalidCredentials:
		return fmt.Errorf("%s", res.Message)
	default:
		return fmt.Errorf("%s", res.Message)
	}
}

func runPasswd(ctx context.Context, c *client.Client) error {
	current := prompt("Current password")
	next := prompt("New password")
	confirm := prompt("Confirm new password")

	if err := c.ChangePassword(ctx, current, next, confirm); err != nil {
		return err
	}
	fmt.Println("Password changed. All sessions were closed; log in again.")
	return nil
}

func runSessions(ctx context.Context, c *client.Client, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "close-others":
			closed, err := c.CloseOtherSessions(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Closed %d session(s)\n", closed)
			return nil
		case "watch":
			return watchSessions(ctx, c)
		default:
			return fmt.Errorf("unknown sessions subcommand %q", args[0])
		}
	}

	sessions, err := c.ActiveSessions(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tNAME\tPLATFORM\tLAST SEEN\t")
	for _, s := range sessions {
		marker := ""
		if s.Current {
			marker = " (this device)"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t\n",
			s.DeviceID, marker, s.DeviceName, s.Platform, s.LastSeenAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func watchSessions(ctx context.Context, c *client.Client) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := c.WatchSessions(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Watching session events (Ctrl+C to stop)")
	for ev := range events {
		switch ev.Type {
		case protocol.SessionOpened:
			fmt.Printf("opened  %s on %s\n", ev.Session.DeviceID, ev.Session.Platform)
		case protocol.SessionClosed:
			fmt.Printf("closed  %s\n", ev.Session.DeviceID)
		}
	}
	return nil
}

func runUsers(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		users, err := c.Users(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\t")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", u.ID, u.Email, u.Name, u.Role)
		}
		return w.Flush()
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: users add <email>")
		}
		user, err := c.CreateUser(ctx, protocol.CreateUserRequest{
			Email:    args[1],
			Name:     prompt("Name"),
			Role:     prompt("Role [user]"),
			Password: prompt("Password"),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", user.Email, user.ID)
		return nil
	case "rm":
		if len(args) < 2 {
			return fmt.Errorf("usage: users rm <id>")
		}
		if err := c.DeleteUser(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("User deleted")
		return nil
	default:
		return fmt.Errorf("unknown users subcommand %q", args[0])
	}
}

func runFolders(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		folders, err := c.Folders(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSHARED\t")
		for _, f := range folders {
			fmt.Fprintf(w, "%s\t%s\t%t\t\n", f.ID, f.Name, f.Shared)
		}
		return w.Flush()
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: folders add <name>")
		}
		folder, err := c.CreateFolder(ctx, protocol.CreateFolderRequest{
			Name:   args[1],
			Shared: true,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created folder %s (%s)\n", folder.Name, folder.ID)
		return nil
	case "rm":
		if len(args) < 2 {
			return fmt.Errorf("usage: folders rm <id>")
		}
		if err := c.DeleteFolder(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Folder deleted")
		return nil
	default:
		return fmt.Errorf("unknown folders subcommand %q", args[0])
	}
}

func runDevice(c *client.Client, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}
	switch args[0] {
	case "show":
		fmt.Println(c.DeviceID())
		if !c.DevicePersistent() {
			fmt.Fprintln(os.Stderr, "warning: identifier is not persisted; it will change on restart")
		}
		return nil
	case "reset":
		fmt.Println(c.ResetDevice())
		return nil
	default:
		return fmt.Errorf("unknown device subcommand %q", args[0])
	}
}
