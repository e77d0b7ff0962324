package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go-portal/internal/auth"
	"go-portal/internal/client"
	"go-portal/internal/session"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type authAPI interface {
	Login(ctx context.Context, email, password string) (auth.PublicProfile, error)
	Signup(ctx context.Context, name, email, password string) (auth.PublicProfile, error)
}

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	dir, err := session.DefaultDir()
	if err != nil {
		logger.Fatal("resolve session dir failed", zap.Error(err))
	}
	storage, err := session.NewFileStorage(dir)
	if err != nil {
		logger.Fatal("open session storage failed", zap.Error(err))
	}

	api := client.New(os.Getenv("PORTAL_API_URL"), nil)
	root := newRootCommand(api, session.NewCache(storage), os.Stdout)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(api authAPI, cache *session.Cache, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "portal",
		Short:        "Sign in to the customer portal from the terminal",
		SilenceUsage: true,
	}

	var password string

	loginCmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Check credentials and remember the signed-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordOrPrompt(password, out)
			if err != nil {
				return err
			}
			profile, err := api.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return describe(err)
			}
			cache.Save(profile)
			fmt.Fprintf(out, "Signed in as %s\n", profile.Email)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	var name string
	signupCmd := &cobra.Command{
		Use:   "signup <email>",
		Short: "Create an account and remember it as the signed-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordOrPrompt(password, out)
			if err != nil {
				return err
			}
			profile, err := api.Signup(cmd.Context(), name, args[0], pw)
			if err != nil {
				return describe(err)
			}
			cache.Save(profile)
			fmt.Fprintf(out, "Account created for %s (%s)\n", profile.Name, profile.ID)
			return nil
		},
	}
	signupCmd.Flags().StringVar(&name, "name", "", "Display name")
	signupCmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := cache.Load()
			if profile == nil {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			fmt.Fprintln(out, profile.Email)
			if profile.Name != "" {
				fmt.Fprintf(out, "name: %s\n", profile.Name)
			}
			if profile.ID != "" {
				fmt.Fprintf(out, "id: %s\n", profile.ID)
			}
			return nil
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache.Clear()
			fmt.Fprintln(out, "Signed out")
			return nil
		},
	}

	root.AddCommand(loginCmd, signupCmd, whoamiCmd, logoutCmd)
	return root
}

func passwordOrPrompt(flagValue string, out io.Writer) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(out, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(string(pw), "\r\n"), nil
}

func describe(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return fmt.Errorf("portal api unreachable, check PORTAL_API_URL: %w", err)
	}
	return err
}
