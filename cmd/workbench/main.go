// Command workbench runs the engine's debug HTTP/WS surface
// (internal/protocolapi) over one shared pkg/engine.Catalog, the same role
// the teacher's cmd/main.go filled for internal/app.Server: start a
// process, bind a port, serve editor integrations until killed.
package main

import (
	"flag"
	"net/http"

	"go.uber.org/zap"

	"github.com/sqlweave/engine/internal/applog"
	"github.com/sqlweave/engine/internal/protocolapi"
	"github.com/sqlweave/engine/pkg/engine"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dev := flag.Bool("dev", false, "use zap's development logger instead of production")
	flag.Parse()

	log, err := applog.New(*dev)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cat := engine.NewCatalog()
	handler := protocolapi.SetupRoutes(cat.Raw(), log)

	log.Info("workbench listening", zap.String("addr", *addr))
	if err := http.ListenAndServe(*addr, handler); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
