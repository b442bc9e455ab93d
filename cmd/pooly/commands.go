package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"pooly/internal/catalog"
	"pooly/internal/chat"
	"pooly/internal/gateway"
	"pooly/internal/memory"
	"pooly/internal/webui"

	"github.com/charmbracelet/lipgloss"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("89")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1).
			Bold(true)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	lineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	userStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	aiStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and chat widget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := opts.cfg

			app, err := gateway.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Service.Wait()

			if !log.IsLevelEnabled(log.DebugLevel) {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := webui.NewServer(app.Service, webui.Options{
				Port:         cfg.Port,
				Layout:       app.Cache.Layout(),
				AllowOrigins: cfg.AllowOrigins,
				RateLimit: webui.RateLimit{
					Requests: cfg.RateLimit.Requests,
					Window:   cfg.RateLimit.Window,
					Message:  cfg.RateLimit.Message,
				},
			})
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	var clientID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := gateway.Build(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer app.Service.Wait()
			return runREPL(cmd.Context(), app.Service, clientID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "cli", "client id recorded with the session")
	return cmd
}

func runREPL(ctx context.Context, service *chat.Service, clientID string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, titleStyle.Render("PoolyAI chat"))
	fmt.Fprintln(out, keyStyle.Render("Type /exit to quit, /new to start a new session."))

	sessionID := ""
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch input {
		case "/exit", "exit", "quit":
			return nil
		case "/new":
			sessionID = ""
			fmt.Fprintln(out, keyStyle.Render("new session"))
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		resp, err := service.HandleTurn(turnCtx, chat.TurnRequest{Message: input, SessionID: sessionID, ClientID: clientID})
		cancel()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("error: ")+err.Error())
			continue
		}
		sessionID = resp.SessionID
		fmt.Fprintln(out, aiStyle.Render("PoolyAI: ")+resp.Reply)
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := gateway.BuildOffline(opts.cfg)
			query := strings.Join(args, " ")
			results := app.Service.SearchCatalog(cmd.Context(), query, limit)
			printSnippets(cmd.OutOrStdout(), query, results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "max", "n", 20, "maximum number of results")
	return cmd
}

func printSnippets(out io.Writer, query string, results []catalog.Snippet) {
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d risultati per %q", len(results), query)))
	for _, r := range results {
		fmt.Fprintf(out, "%s %s\n", lineStyle.Render(fmt.Sprintf("%5d", r.Line)), r.Text)
	}
}

func newRegenerateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Re-extract the catalog text from the PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := gateway.BuildOffline(opts.cfg)
			gen, err := app.Service.RegenerateCatalogText(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Catalogo testuale generato"))
			fmt.Fprintf(out, "%s %s\n", keyStyle.Render("path:  "), gen.Path)
			fmt.Fprintf(out, "%s %d\n", keyStyle.Render("length:"), gen.Length)
			return nil
		},
	}
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	var (
		id     string
		browse bool
	)
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions or print one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := gateway.BuildOffline(opts.cfg)
			m := app.Store.Load(cmd.Context())
			out := cmd.OutOrStdout()
			if browse {
				return runBrowser(m)
			}
			if id == "" {
				printSessionList(out, m)
				return nil
			}
			sess := m.Session(id)
			if sess == nil {
				return fmt.Errorf("session %s not found", id)
			}
			printSession(out, sess)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "print the messages of this session")
	cmd.Flags().BoolVarP(&browse, "browse", "b", false, "browse sessions interactively")
	return cmd
}

func printSessionList(out io.Writer, m *memory.Memory) {
	ids := m.IDs()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d sessioni", len(ids))))
	for _, id := range ids {
		s := m.Sessions[id]
		fmt.Fprintf(out, "%s  %s  %-20s %3d messaggi\n",
			lineStyle.Render(id), keyStyle.Render(s.Created.Local().Format(time.DateTime)), s.ClientID, len(s.Messages))
	}
}

func printSession(out io.Writer, s *memory.Session) {
	fmt.Fprint(out, formatSession(s))
}

func formatSession(s *memory.Session) string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render(s.ID))
	fmt.Fprintf(&b, "%s %s\n\n", keyStyle.Render("client:"), s.ClientID)
	for _, msg := range s.Messages {
		label := userStyle.Render("cliente")
		if msg.Role == memory.RoleAssistant {
			label = aiStyle.Render("PoolyAI")
		}
		fmt.Fprintf(&b, "%s %s\n%s\n\n", label, keyStyle.Render(msg.Timestamp.Local().Format(time.DateTime)), msg.Content)
	}
	return b.String()
}
