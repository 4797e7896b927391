// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gateway serves a ggst client's read operations (player stats,
// avatars, recent replays) to local consumers such as a web frontend.
//
// # Transport Selection
//
// JSON-RPC 2.0 over HTTP is the default transport. gRPC is also
// registered, using a JSON wire codec so no generated stubs are needed:
//
//	server, err := gateway.Listen(":9000", client)
//	server, err := gateway.Listen(":9000", client, gateway.WithServerTransport(gateway.TransportGRPC))
//
// # Usage
//
//	go server.Serve(ctx)
//
//	gw, err := gateway.Dial(ctx, "localhost:9000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gw.Close()
//
//	stats, err := gw.PlayerStats(ctx, playerID)
//
// Backend failures come back as *RemoteError. Fatal is set when the
// backend could not log in or fetch replays.
package gateway
