// Package serve runs the NetGuardian scoring service.
//
// The HTTP API is what the scan client talks to:
//
//	GET  /health                  liveness, always {"ok":true}
//	GET  /ready                   combined health of the store and secret provider
//	POST /v1/scans                score a scan report
//	GET  /v1/devices/{id}/scans   scan history of one device, newest first
//
// A gRPC server exposes the standard grpc.health.v1 service alongside it,
// reporting SERVING while the service is ready.
//
//	srv, err := serve.New(serve.Config{Addr: ":8080", GRPCAddr: ":9090"},
//	    serve.WithStore(store.NewMemory()),
//	    serve.WithSecret(secret.Env("NETGUARDIAN_HMAC_SECRET")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(srv.Serve(ctx))
package serve
