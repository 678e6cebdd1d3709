package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/goliatone/formflow"
	"github.com/goliatone/formflow/pkg/navigator"
	"github.com/goliatone/formflow/pkg/session"
	"github.com/goliatone/formflow/pkg/store"
	"github.com/goliatone/formflow/pkg/validation"
)

const (
	actionValidate = "Run full form validation"
	actionFinish   = "Finish current section"
	actionQuit     = "Quit"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open an interactive form session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSession(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func newLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newStore(logger *zap.Logger) (store.Store, error) {
	if path := viper.GetString("state-file"); path != "" {
		return store.NewFile(path, store.WithFileLogger(logger))
	}
	return store.NewMemory(), nil
}

func runSession(ctx context.Context) error {
	for _, key := range []string{"base-url", "form", "record"} {
		if viper.GetString(key) == "" {
			return fmt.Errorf("--%s is required", key)
		}
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	service, err := formflow.NewHTTPService(viper.GetString("base-url"),
		formflow.WithAuthToken(viper.GetString("auth-token")))
	if err != nil {
		return err
	}

	st, err := newStore(logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()

	sess, err := session.New(
		viper.GetString("record"),
		viper.GetString("form"),
		viper.GetString("parent-object"),
		st,
		session.WithLanguage(viper.GetString("language")),
		session.WithLiveValidation(viper.GetBool("live")),
		session.WithSectionPanel(viper.GetBool("panel")),
	)
	if err != nil {
		return err
	}

	notifier := validation.NewZapNotifier(logger)
	ctrl, err := navigator.New(sess, service,
		navigator.WithLogger(logger),
		navigator.WithNotifier(notifier))
	if err != nil {
		return err
	}
	if err := ctrl.Load(ctx); err != nil {
		return err
	}
	defer func() {
		_ = ctrl.Close()
	}()

	forms := validation.NewFormClient(service,
		validation.WithLogger(logger),
		validation.WithNotifier(notifier))

	for {
		choice, err := pickAction(ctrl)
		if err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil
			}
			return err
		}

		switch choice {
		case actionQuit:
			return nil
		case actionFinish:
			if err := ctrl.FlowFinished(ctx); err != nil {
				logger.Warn("advance failed", zap.Error(err))
			}
		case actionValidate:
			outcome, err := forms.Validate(ctx, sess, ctrl.Definition(), nil)
			if err != nil {
				continue
			}
			if outcome.IsValid {
				fmt.Println("Form is valid.")
			} else {
				fmt.Printf("Form has errors in %d section(s).\n", countErrored(outcome))
			}
		default:
			if err := ctrl.ChangeSection(ctx, choice); err != nil {
				logger.Warn("navigation failed", zap.Error(err))
			}
		}
	}
}

// pickAction renders the section rail with indicator markers and the session
// actions as one select prompt.
func pickAction(ctrl *navigator.Controller) (string, error) {
	var options []string
	byLabel := map[string]string{}
	for _, view := range ctrl.Sections() {
		label := view.Label
		switch {
		case view.Active:
			label = "> " + label
		case view.HasErrors:
			label = "! " + label
		case view.Validated:
			label = "  " + label + " (ok)"
		default:
			label = "  " + label
		}
		options = append(options, label)
		byLabel[label] = view.ID
	}
	options = append(options, actionValidate, actionFinish, actionQuit)

	var picked string
	prompt := &survey.Select{
		Message:  "Section",
		Options:  options,
		PageSize: len(options),
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return "", err
	}
	if id, ok := byLabel[picked]; ok {
		return id, nil
	}
	return picked, nil
}

func countErrored(outcome validation.FormOutcome) int {
	n := 0
	for _, s := range outcome.Sections {
		if s.HasErrors {
			n++
		}
	}
	return n
}
