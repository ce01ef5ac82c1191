package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashendes/payplus-connector/internal/signer"
)

var signPayloadFlag string

// signOutput is what the sign command prints. Body can be posted to the
// webhook endpoint as is.
type signOutput struct {
	EncodedPayload string          `json:"encodedPayload"`
	Signature      string          `json:"signature"`
	Body           json.RawMessage `json:"body"`
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a JSON payload with the merchant secret",
	Long: `Encode and sign a JSON payload the way the gateway does. The output
includes a webhook body, which is useful for replaying callbacks:

  payplus-service sign --payload '{"orderId":"ORD-1","status":"COMPLETED"}'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := signPayload(cfg.Merchant.Secret, signPayloadFlag)
		if err != nil {
			return err
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	},
}

func init() {
	signCmd.Flags().StringVarP(&signPayloadFlag, "payload", "p", "", "JSON payload to sign")
	_ = signCmd.MarkFlagRequired("payload")
}

func signPayload(secret, payload string) (*signOutput, error) {
	if !json.Valid([]byte(payload)) {
		return nil, errors.New("payload is not valid JSON")
	}
	s, err := signer.New(secret)
	if err != nil {
		return nil, err
	}
	env, err := s.Seal(json.RawMessage(payload))
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(struct {
		Signature string          `json:"signature"`
		Payload   json.RawMessage `json:"payload"`
	}{env.Signature, env.Payload})
	if err != nil {
		return nil, err
	}
	return &signOutput{
		EncodedPayload: env.EncodedPayload,
		Signature:      env.Signature,
		Body:           body,
	}, nil
}
