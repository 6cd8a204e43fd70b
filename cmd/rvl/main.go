// Command rvl manages redisvl search indexes from the terminal:
// create them from YAML schemas, inspect, list and destroy them.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tuhinmallick/redisvl"
	"github.com/tuhinmallick/redisvl/internal/config"
	"github.com/tuhinmallick/redisvl/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type connFlags struct {
	url      string
	host     string
	port     int
	user     string
	password string
	ssl      bool
}

// resolve builds the connection URL: -u wins, then the discrete flags,
// then $REDIS_URL, then the localhost default.
func (f *connFlags) resolve() string {
	if f.url != "" {
		return f.url
	}
	if f.host != "" {
		scheme := "redis"
		if f.ssl {
			scheme = "rediss"
		}
		auth := ""
		if f.user != "" || f.password != "" {
			auth = f.user
			if f.password != "" {
				auth += ":" + f.password
			}
			auth += "@"
		}
		return fmt.Sprintf("%s://%s%s:%d", scheme, auth, f.host, f.port)
	}
	return config.ResolveRedisURL("")
}

func newRootCmd() *cobra.Command {
	var conn connFlags

	root := &cobra.Command{
		Use:           "rvl",
		Short:         "Manage redisvl search indexes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&conn.url, "url", "u", "",
		"redis connection URL (default $REDIS_URL, then "+config.DefaultRedisURL+")")
	pf.StringVar(&conn.host, "host", "", "redis host")
	pf.IntVarP(&conn.port, "port", "p", 6379, "redis port")
	pf.StringVar(&conn.user, "user", "", "redis username")
	pf.StringVarP(&conn.password, "password", "a", "", "redis password")
	pf.BoolVar(&conn.ssl, "ssl", false, "use TLS (rediss://)")

	connect := func() (*redisvl.Client, error) {
		return redisvl.New(redisvl.WithURL(conn.resolve()))
	}

	root.AddCommand(newIndexCmd(connect))
	root.AddCommand(newVersionCmd())
	return root
}

func newIndexCmd(connect func() (*redisvl.Client, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index commands",
	}
	cmd.AddCommand(newIndexCreateCmd(connect))
	cmd.AddCommand(newIndexDestroyCmd(connect))
	cmd.AddCommand(newIndexInfoCmd(connect))
	cmd.AddCommand(newIndexListallCmd(connect))
	return cmd
}

func newIndexCreateCmd(connect func() (*redisvl.Client, error)) *cobra.Command {
	var schemaPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an index from a YAML schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := redisvl.LoadSchema(schemaPath)
			if err != nil {
				return err
			}

			client, err := connect()
			if err != nil {
				return err
			}
			defer client.Close()

			index, err := redisvl.NewSearchIndex(client, schema)
			if err != nil {
				return err
			}
			if err := index.Create(cmd.Context(), overwrite); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "index %s created\n", index.Name())
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "path to the YAML schema file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "recreate the index definition if it exists")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newIndexDestroyCmd(connect func() (*redisvl.Client, error)) *cobra.Command {
	var name string
	var dropDocuments bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete an index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := connect()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.DropIndex(cmd.Context(), name, dropDocuments); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "index %s destroyed\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "index", "i", "", "index name")
	cmd.Flags().BoolVar(&dropDocuments, "drop-documents", false, "delete the indexed documents too")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newIndexInfoCmd(connect func() (*redisvl.Client, error)) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show index attributes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := connect()
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.IndexInfo(cmd.Context(), name)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(info))
			for k := range info {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, info[k])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "index", "i", "", "index name")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newIndexListallCmd(connect func() (*redisvl.Client, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "listall",
		Short: "List every index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := connect()
			if err != nil {
				return err
			}
			defer client.Close()

			names, err := client.ListIndexes(cmd.Context())
			if err != nil {
				return err
			}

			sort.Strings(names)
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rvl %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
