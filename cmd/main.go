package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"onlearn-client/config"
	"onlearn-client/internal/cache"
	"onlearn-client/internal/domain"
	"onlearn-client/internal/repository"
	"onlearn-client/internal/usecase"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"

	"github.com/spf13/cobra"
)

const appName = "onlearn"

// app is the client core wired for one CLI invocation.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	store      *cache.Store
	dispatcher *usecase.Dispatcher
	chat       *usecase.ChatSynchronizer
	session    *usecase.SessionUsecase
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if retryable(err) {
			fmt.Fprintln(os.Stderr, "This may be temporary, try the same command again.")
		}
		os.Exit(1)
	}
}

func retryable(err error) bool {
	var re *domain.RequestError
	return errors.As(err, &re) && re.Retryable()
}

func rootCmd() *cobra.Command {
	var (
		apiURL  string
		logMode string
		a       = &app{}
	)

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Command line client for the OnLearn learning platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(apiURL, logMode)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api", "", "Backend base URL (overrides API_BASE_URL)")
	cmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log mode: dev or prod (overrides LOG_MODE)")

	cmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		coursesCmd(a),
		learningCmd(a),
		topicsCmd(a),
		enrollCmd(a),
		completeCmd(a),
		chatCmd(a),
	)
	return cmd
}

func (a *app) init(apiURL, logMode string) error {
	cfg, _ := config.Load()
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if logMode != "" {
		cfg.LogMode = logMode
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	db, err := config.OpenLocalStore(cfg.TokenStorePath)
	if err != nil {
		return err
	}
	tokens, err := repository.NewTokenStore(db)
	if err != nil {
		return fmt.Errorf("init token store: %w", err)
	}

	api := repository.NewAPIClient(cfg.APIBaseURL, cfg.APITimeout, tokens, log)
	store := cache.NewStore()

	a.cfg = cfg
	a.log = log
	a.store = store
	a.dispatcher = usecase.NewDispatcher(api, store, log)
	a.chat = usecase.NewChatSynchronizer(api, log)
	a.session = usecase.NewSessionUsecase(tokens, store, log)
	return nil
}

// bootstrap runs the startup load and reports, without failing, any
// collection that could not be fetched.
func (a *app) bootstrap(cmd *cobra.Command, learner bool) {
	report := a.dispatcher.Bootstrap(cmd.Context())
	if learner {
		learnerReport := a.dispatcher.LoadLearnerData(cmd.Context())
		if report.Errors == nil {
			report.Errors = make(map[string]error)
		}
		for name, err := range learnerReport.Errors {
			report.Errors[name] = err
		}
	}
	for _, name := range report.Failed() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not load %s: %v\n", name, report.Errors[name])
	}
}

func loginCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token issued by the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := a.session.UseToken(cmd.Context(), strings.TrimSpace(token))
			if err != nil {
				return fmt.Errorf("invalid token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", claims.UserID, claims.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := a.session.Identity(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", claims.UserID, claims.Role)
			return nil
		},
	}
}

func coursesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bootstrap(cmd, false)
			categories := make(map[string]string)
			for _, c := range a.store.Categories.All() {
				categories[c.ID] = c.Name
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tLEVEL\tSTATUS\tTOPICS")
			for _, c := range a.store.Courses.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", c.ID, c.Name, categories[c.CategoryID], c.Level, c.Status, len(c.Topics))
			}
			return w.Flush()
		},
	}
}

func learningCmd(a *app) *cobra.Command {
	var sortKey, filter string
	cmd := &cobra.Command{
		Use:   "learning",
		Short: "Show my enrolled courses and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bootstrap(cmd, true)
			cards := usecase.BuildLearningView(a.store.Enrollments.All(), a.store.CourseLookup(), usecase.SortKey(sortKey))
			cards = usecase.FilterLearning(cards, usecase.LearningFilter(filter))

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COURSE\tPROGRESS\tSTATUS\tLAST ACCESSED")
			for _, c := range cards {
				status := "in progress"
				if c.Completed {
					status = "completed"
				}
				fmt.Fprintf(w, "%s\t%d%%\t%s\t%s\n", c.Course.Name, c.Progress, status, c.LastAccessed.Format("2006-01-02 15:04"))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			s := usecase.SummarizeLearning(cards)
			fmt.Fprintf(out, "\n%d enrolled, %d completed, %d in progress, average %d%%\n",
				s.TotalEnrollments, s.CompletedCourses, s.InProgressCourses, s.AverageProgress)
			if n := a.dispatcher.UnreadCount(); n > 0 {
				fmt.Fprintf(out, "%d unread notifications\n", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sortKey, "sort", string(usecase.SortRecent), "recent, name_asc, name_desc, progress_asc or progress_desc")
	cmd.Flags().StringVar(&filter, "filter", string(usecase.FilterAll), "all, in_progress or completed")
	return cmd
}

func topicsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "topics <courseId>",
		Short: "Show the topics of a course and which ones are unlocked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			course, err := a.dispatcher.RefreshCourse(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.dispatcher.LoadMyProgress(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: progress unavailable, all topics shown locked: %v\n", err)
			}

			state := usecase.DeriveTopicState(course, usecase.CompletionForCourse(a.store, course.ID))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d/%d topics, %d%%\n", course.Name, state.CompletedCount, state.TotalCount, state.Percent)
			for i, t := range state.Topics {
				fmt.Fprintf(out, "%2d. [%s] %s (%s)\n", i+1, t.Status, t.Title, t.ID)
			}
			return nil
		},
	}
}

func enrollCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <courseId>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.dispatcher.Enroll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enrolled (%s)\n", e.ID)
			return nil
		},
	}
}

func completeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <courseId> <topicId>",
		Short: "Mark a topic as completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.dispatcher.RefreshCourse(ctx, args[0]); err != nil {
				return err
			}
			if err := a.dispatcher.LoadMyProgress(ctx); err != nil {
				return err
			}
			if _, err := a.dispatcher.CompleteTopic(ctx, args[0], args[1]); err != nil {
				return err
			}
			course, _ := a.store.Courses.Get(args[0])
			state := usecase.DeriveTopicState(course, usecase.CompletionForCourse(a.store, course.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "Topic completed, course at %d%%\n", state.Percent)
			if next, ok := usecase.CurrentTopic(state); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Next: %s (%s)\n", next.Title, next.ID)
			}
			return nil
		},
	}
}

func chatCmd(a *app) *cobra.Command {
	var send string
	var newSession bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the AI learning assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if err := a.chat.Init(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			if newSession {
				if _, err := a.chat.NewSession(ctx); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}
			printTimeline(out, a.chat.Timeline())

			if send != "" {
				return sendAndPrint(cmd, a.chat, send)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(out, "> ")
			for scanner.Scan() {
				if quit := a.chatLine(cmd, strings.TrimSpace(scanner.Text())); quit {
					return nil
				}
				fmt.Fprint(out, "> ")
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&send, "send", "", "Send one message and exit")
	cmd.Flags().BoolVar(&newSession, "new", false, "Start a new session")
	return cmd
}

// chatLine handles one REPL line and reports whether the user asked to quit.
func (a *app) chatLine(cmd *cobra.Command, line string) bool {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch command {
	case "":
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(out, "/sessions, /open <id>, /delete <id>, /new, /quit")
	case "/sessions":
		active, _ := a.chat.ActiveSession()
		for _, s := range a.chat.Sessions() {
			mark := " "
			if s.ID == active.ID {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s  %s  %s\n", mark, s.ID, s.LastMessageAt.Format("2006-01-02 15:04"), s.Title)
		}
	case "/open":
		if err = a.chat.SelectSession(ctx, arg); err == nil {
			printTimeline(out, a.chat.Timeline())
		}
	case "/delete":
		if err = a.chat.Delete(ctx, arg); err == nil {
			active, _ := a.chat.ActiveSession()
			fmt.Fprintf(out, "Deleted %s, now in %s\n", arg, active.ID)
			printTimeline(out, a.chat.Timeline())
		}
	case "/new":
		_, err = a.chat.NewSession(ctx)
		printTimeline(out, a.chat.Timeline())
	default:
		err = sendAndPrint(cmd, a.chat, line)
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	}
	return false
}

// sendAndPrint prints the reply, or the error bubble on failure.
func sendAndPrint(cmd *cobra.Command, chat *usecase.ChatSynchronizer, content string) error {
	err := chat.Send(cmd.Context(), content)
	timeline := chat.Timeline()
	if len(timeline) > 0 {
		printTimeline(cmd.OutOrStdout(), timeline[len(timeline)-1:])
	}
	return err
}

func printTimeline(w io.Writer, msgs []domain.ChatMessage) {
	for _, m := range msgs {
		who := "you"
		switch {
		case m.Sender == domain.SenderAI:
			who = "ai"
		case !m.Pending && utils.IsTemporaryID(m.ID):
			who = "you, not sent"
		}
		fmt.Fprintf(w, "[%s] %s\n", who, m.Content)
	}
}
