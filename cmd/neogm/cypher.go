package neogm

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	ogm "github.com/groc-prog/neo4j-ogm-sub000"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/config"
)

var cypherCmd = &cobra.Command{
	Use:   "cypher <query>",
	Short: "Run a Cypher query and print the rows as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runCypher,
}

var (
	cypherParams string
	cypherAuto   bool
)

func init() {
	rootCmd.AddCommand(cypherCmd)

	cypherCmd.Flags().StringVar(&cypherParams, "params", "", "query parameters as a JSON object")
	cypherCmd.Flags().BoolVar(&cypherAuto, "auto-commit", false, "run in a dedicated auto-committing session")
}

func runCypher(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var params map[string]any
	if cypherParams != "" {
		if err := json.Unmarshal([]byte(cypherParams), &params); err != nil {
			return fmt.Errorf("invalid --params: %w", err)
		}
	}

	client := ogm.New(cfg)
	ctx := cmd.Context()
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close(ctx)

	// Ad-hoc queries have no registered models, so return raw values.
	opts := []ogm.QueryOption{ogm.WithoutResolution()}
	if cypherAuto {
		opts = append(opts, ogm.WithAutoCommit())
	}
	res, err := client.Cypher(ctx, args[0], params, opts...)
	if err != nil {
		return err
	}

	out := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		m := make(map[string]any, len(res.Keys))
		for j, key := range res.Keys {
			m[key] = row[j]
		}
		out[i] = m
	}

	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(out)
}
