// Package bpclient builds clients for the Brightpearl public API that
// implement the brightpearl.Client interface.
//
// It validates configuration, normalizes the host and wires the retrying
// transport on top of the resource interfaces defined in the brightpearl
// package. Most applications import bpclient to build a client, then use the
// returned brightpearl.Client to reach Orders() and Products().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/brightpearl/pkg/bpclient"
//	  "github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  bp, err := bpclient.NewWithCredentials(ctx,
//	    "https://use1.brightpearlconnect.com", "mybusiness", "my-app-ref", "account-token")
//	  if err != nil { log.Fatal(err) }
//
//	  for order, err := range bp.Orders().IterateRecords(ctx, &brightpearl.ListOptions{OrderBy: "-updatedOn"}) {
//	    if err != nil { log.Fatal(err) }
//	    log.Println(order["orderId"])
//	  }
//	}
//
// # Hosts
//
// The host must carry a scheme. The bare datacentre names
// use1.brightpearlconnect.com and ws-use.brightpearlconnect.com (and their EU
// equivalents) are rewritten to https; any other bare host fails with a
// *brightpearl.ConfigurationError before a request is sent.
//
// # Helpers
//
// NewWithCredentials fills in the default retry policy. NewFromEnv reads
// BRIGHTPEARL_HOST, BRIGHTPEARL_ACCOUNT_ID, BRIGHTPEARL_APP_REF and
// BRIGHTPEARL_ACCOUNT_TOKEN.
package bpclient
