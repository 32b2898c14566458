package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"neuroflow/internal/core"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive intake conversation on the terminal",
	Long: "Starts a session, greets the patient, then loops reading patient text from stdin " +
		"until the interview terminates or the patient types quit/exit/stop. Voice front ends " +
		"adapt to this same text boundary: transcribe before sending, synthesize from the reply.",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			exitErr("startup", err)
		}
		defer func() { _ = a.log.Sync() }()

		ctx := cmd.Context()
		threadID, err := a.gateway.CreateSession(ctx)
		if err != nil {
			exitErr("session bootstrap", err)
		}
		if a.repo != nil {
			if _, err := a.repo.CreateSession(ctx, threadID); err != nil {
				a.log.Warn("session record not persisted", zap.Error(err))
			}
		}
		fmt.Printf("session %s\n\n", threadID)
		fmt.Printf("neuroflow> %s\n", core.FirstMessage)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("you> ")
			if !scanner.Scan() {
				break
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			switch strings.ToLower(text) {
			case "quit", "exit", "stop":
				result, err := a.intake.Terminate(ctx, threadID)
				if err != nil {
					a.log.Error("manual termination failed", zap.Error(err))
					return
				}
				fmt.Printf("neuroflow> %s\n", result.Response)
				if result.NotePath != "" {
					fmt.Printf("note written to %s\n", result.NotePath)
				}
				return
			}

			result, err := a.intake.HandlePatientMessage(ctx, threadID, text)
			if err != nil {
				a.log.Error("turn failed", zap.Error(err))
				fmt.Printf("neuroflow> %s\n", core.ApologyMessage)
				continue
			}
			fmt.Printf("neuroflow> %s\n", result.Response)
			if result.Terminate {
				if result.NotePath != "" {
					fmt.Printf("note written to %s\n", result.NotePath)
				}
				return
			}
		}
	},
}
