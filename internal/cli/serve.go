package cli

import (
	"github.com/spf13/cobra"

	"github.com/petereon/fix-stl/internal/server"
)

func newServeCmd(st *runtimeState) *cobra.Command {
	var (
		listen     string
		allowHosts []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the repair commands as a local HTTP JSON API",
		Long: `Serve fix_mesh_file, read_raw_file and reveal_in_file_manager over HTTP.

All endpoints take POST with a JSON body:

  POST /api/fix_mesh_file           {"input_path", "output_path"?, "options"?}
  POST /api/read_raw_file           {"path"}
  POST /api/reveal_in_file_manager  {"path"}

Every repair outcome, including failures reported by MeshFix, is a 200
response with {"ok": true, "data": {...}}. Requests that never reach
MeshFix get {"ok": false, "error": {...}} with a 4xx status.

Bodies must be sent as application/json. Requests whose Host or Origin
is not loopback, the listen host or an --allow-host name get 403.`,
		Example: `  fixstl serve
  fixstl serve --listen 0.0.0.0:9000 --allow-host workstation.lan --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("listen") {
				listen = st.cfg.Listen
			}

			op, err := st.repairOperation()
			if err != nil {
				return err
			}

			srv := server.New(op, st.logger).
				WithReveal(st.deps.Reveal).
				WithAllowedHosts(allowHosts...)
			cmd.PrintErrf("Listening on http://%s\n", listen)
			return srv.ListenAndServe(cmd.Context(), listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, 127.0.0.1:8765)")
	cmd.Flags().StringSliceVar(&allowHosts, "allow-host", nil, "Additional host names accepted in Host and Origin headers")

	return cmd
}
