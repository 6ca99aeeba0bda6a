// ABOUTME: Admin CLI for ideahub user, team, and activity inspection
// ABOUTME: Operates directly on the SQLite database, bypassing the HTTP API

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/Animus004/ideahub/internal/config"
	"github.com/Animus004/ideahub/internal/store"
)

const banner = `
  _     _            _           _
 (_) __| | ___  __ _| |__  _   _| |__
 | |/ _' |/ _ \/ _' | '_ \| | | | '_ \
 | | (_| |  __/ (_| | | | | |_| | |_) |
 |_|\__,_|\___|\__,_|_| |_|\__,_|_.__/  admin
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	st, err := openStore()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()

	switch cmd {
	case "users":
		err = cmdUsers(ctx, st)
	case "teams":
		err = cmdTeams(ctx, st, args)
	case "members":
		err = cmdMembers(ctx, st, args)
	case "invites":
		err = cmdInvites(ctx, st, args)
	case "activity":
		err = cmdActivity(ctx, st, args)
	case "disable":
		err = cmdDisable(ctx, st, args)
	case "revoke":
		err = cmdRevoke(ctx, st, args)
	case "stats":
		err = cmdStats(ctx, st, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: ideahub-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  users                    List all user accounts")
	fmt.Println("  teams <username>         List teams a user belongs to")
	fmt.Println("  members <team-id>        List members of a team")
	fmt.Println("  invites <team-id>        List invitations for a team")
	fmt.Println("  activity <team-id>       Show recent team activity")
	fmt.Println("  disable <username>       Disable an account and revoke its sessions")
	fmt.Println("  revoke <username>        Revoke all sessions for a user")
	fmt.Println("  stats <username>         Show a user's generation stats")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  IDEAHUB_CONFIG           Config file path (default: ~/.config/ideahub/config.yaml)")
	fmt.Println("  IDEAHUB_DB               Database path (overrides the config file)")
	fmt.Println()
}

func openStore() (*store.SQLiteStore, error) {
	dbPath := os.Getenv("IDEAHUB_DB")
	if dbPath == "" {
		configPath := os.Getenv("IDEAHUB_CONFIG")
		if configPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("locating config: %w", err)
			}
			configPath = home + "/.config/ideahub/config.yaml"
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		dbPath = cfg.Database.Path
	}
	return store.NewSQLiteStore(dbPath)
}

func cmdUsers(ctx context.Context, st *store.SQLiteStore) error {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\n%d user(s)\n\n", len(users))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tUSERNAME\tEMAIL\tCREATED\tLAST LOGIN\tSTATUS")
	fmt.Fprintln(w, "  --\t--------\t-----\t-------\t----------\t------")
	for _, u := range users {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format("Jan 02 15:04")
		}
		status := "active"
		if u.Disabled() {
			status = "disabled"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(u.ID, 12), u.Username, u.Email,
			u.CreatedAt.Format("Jan 02 2006"), lastLogin, status)
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdTeams(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideahub-admin teams <username>")
	}

	user, err := st.GetUserByUsername(ctx, args[0])
	if err != nil {
		return err
	}

	teams, err := st.ListTeamsForUser(ctx, user.ID)
	if err != nil {
		return err
	}

	fmt.Printf("\n%d team(s) for %s\n\n", len(teams), user.Username)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tOWNER\tMEMBERS\tCREATED")
	fmt.Fprintln(w, "  --\t----\t-----\t-------\t-------")
	for _, t := range teams {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%s\n",
			truncate(t.ID, 12), t.Name, truncate(t.OwnerID, 12),
			t.MemberCount, t.CreatedAt.Format("Jan 02 2006"))
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdMembers(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideahub-admin members <team-id>")
	}

	members, err := st.ListMembers(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("\n%d member(s)\n\n", len(members))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  USER\tUSERNAME\tROLE\tJOINED")
	fmt.Fprintln(w, "  ----\t--------\t----\t------")
	for _, m := range members {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			truncate(m.UserID, 12), m.Username, m.Role,
			m.JoinedAt.Format("Jan 02 2006"))
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdInvites(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideahub-admin invites <team-id>")
	}

	invites, err := st.ListInvitations(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("\n%d invitation(s)\n\n", len(invites))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tEMAIL\tROLE\tSTATUS\tEXPIRES")
	fmt.Fprintln(w, "  --\t-----\t----\t------\t-------")
	for _, inv := range invites {
		status := string(inv.Status)
		if inv.Status == store.InviteStatusPending && time.Now().After(inv.ExpiresAt) {
			status = "expired"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			truncate(inv.ID, 12), inv.Email, inv.Role, status,
			inv.ExpiresAt.Format("Jan 02 15:04"))
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdActivity(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideahub-admin activity <team-id>")
	}

	entries, err := st.ListActivity(ctx, args[0], store.ActivityFilter{Limit: 50})
	if err != nil {
		return err
	}

	fmt.Printf("\n%d entr(ies)\n\n", len(entries))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  WHEN\tACTOR\tACTION")
	fmt.Fprintln(w, "  ----\t-----\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\t%s\t%s\n",
			e.Occurred.Format("Jan 02 15:04:05"), truncate(e.ActorID, 12), e.Action)
	}
	w.Flush()
	fmt.Println()
	return nil
}

func cmdDisable(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideahub-admin disable <username>")
	}

	user, err := st.GetUserByUsername(ctx, args[0])
	if err != nil {
		return err
	}

	if err := st.DisableUser(ctx, user.ID); err != nil {
		return err
	}
	if err := st.DeleteSessionsForUser(ctx, user.ID); err != nil {
		return err
	}

	color.Green("Disabled %s and revoked their sessions\n", user.Username)
	return nil
}

func cmdRevoke(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideahub-admin revoke <username>")
	}

	user, err := st.GetUserByUsername(ctx, args[0])
	if err != nil {
		return err
	}

	if err := st.DeleteSessionsForUser(ctx, user.ID); err != nil {
		return err
	}

	color.Green("Revoked all sessions for %s\n", user.Username)
	return nil
}

func cmdStats(ctx context.Context, st *store.SQLiteStore, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ideahub-admin stats <username>")
	}

	user, err := st.GetUserByUsername(ctx, args[0])
	if err != nil {
		return err
	}

	stats, err := st.GetUserStats(ctx, user.ID)
	if err != nil {
		return err
	}

	fmt.Printf("\nStats for %s\n\n", user.Username)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Total ideas:\t%d\n", stats.TotalIdeas)
	fmt.Fprintf(w, "  Generation runs:\t%d\n", stats.TotalRuns)
	fmt.Fprintf(w, "  Ideas (last 7 days):\t%d\n", stats.RecentIdeas)
	w.Flush()
	fmt.Println()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
