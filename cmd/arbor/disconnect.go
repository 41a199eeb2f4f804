package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisAdapter "github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/spf13/cobra"
)

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <caller-id>",
	Short: "Announce a caller disconnect to every server sharing Redis",
	Long: `Publishes the caller id on the disconnect channel. Every "arbor serve"
subscribed to the same Redis cancels the caller's tracked job.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()
		if a.redis == nil {
			return errors.New("disconnect needs a Redis address (--redis or ARBOR_REDIS_ADDR)")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		pub := redisAdapter.NewPublisher(a.redis, a.cfg.RedisChannel)
		if err := pub.Disconnect(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "disconnect for %s published on %s\n", args[0], a.cfg.RedisChannel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}
