package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/studyflow/studyflow/internal/credential"
)

func addLogin(topLevel *cobra.Command) {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the StudyFlow server",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, client, err := newStore()
			if err != nil {
				return err
			}

			if username == "" {
				fmt.Fprint(os.Stderr, "Usuário: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				username = strings.TrimSpace(line)
			}

			fmt.Fprint(os.Stderr, "Senha: ")
			password, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}

			user, err := store.Login(context.Background(), username, string(password))
			if err != nil {
				return err
			}
			if token := client.SessionToken(); token != "" {
				if err := credential.SaveSessionToken(token); err != nil {
					return fmt.Errorf("persisting session: %w", err)
				}
			}
			fmt.Printf("Bem-vindo, %s!\n", user.FullName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")

	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the current server session and clear the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := newStore()
			if err != nil {
				return err
			}
			if err := store.Logout(context.Background()); err != nil {
				return err
			}
			if err := credential.ClearSessionToken(); err != nil {
				return err
			}
			fmt.Println("Logout realizado com sucesso")
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addWhoami(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := newStore()
			if err != nil {
				return err
			}
			user, err := store.CheckAuth(context.Background())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Println("Não autenticado")
				return nil
			}
			fmt.Printf("%s (%s, %s)\n", user.FullName, user.Username, user.Role)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
