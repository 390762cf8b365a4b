package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/gwsync/internal/ws"
)

func callCmd() *cobra.Command {
	var params string

	cmd := &cobra.Command{
		Use:   "call <method>",
		Short: "Send one request to the gateway over a dedicated socket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p any
			if params != "" {
				raw := json.RawMessage(params)
				if !json.Valid(raw) {
					return fmt.Errorf("--params is not valid JSON")
				}
				p = raw
			}

			resp, err := ws.Call(cmd.Context(), cfg.Gateway.WSURL(), args[0], p, cfg.Live.HandshakeTimeout(), logger)
			if resp != nil {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(resp); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&params, "params", "p", "", `request params as JSON, e.g. '{"since":10}'`)

	return cmd
}
