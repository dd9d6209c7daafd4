// Package brightpearl provides types, interfaces, and helpers for working with
// the Brightpearl public API.
//
// # Overview
//
// The brightpearl package defines the configuration, the error types, the
// search option types and the interfaces for the resource clients (orders and
// products). A concrete implementation is provided by the bpclient package,
// which validates configuration and wires the retrying transport. Most
// consumers should import bpclient to construct a client and then use the
// interfaces exposed here.
//
// Getting a client
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
//	  cfg := brightpearl.NewConfig("https://use1.brightpearlconnect.com", "myaccount", "my-app-ref", "token")
//	  cli, err := bpclient.New(ctx, cfg)
//	  if err != nil { log.Fatal(err) }
//
//	  records, err := cli.Orders().ListRecords(ctx, &brightpearl.ListOptions{OrderBy: "-updatedOn"})
//	  if err != nil { log.Fatal(err) }
//	  _ = records
//	}
//
// # Search and pagination
//
// Search endpoints answer with a column/row result set. Normalize reshapes
// such a payload into one Record per row. The resource clients expose
// IteratePages and IterateRecords, which walk the result set page by page
// until a short page signals the end:
//
//	for rec, err := range cli.Products().IterateRecords(ctx, &brightpearl.ListOptions{PageSize: 200}) {
//	  if err != nil { return err }
//	  fmt.Println(rec["SKU"])
//	}
//
// # Errors
//
// Every non-2xx response and every transport failure that survives the retry
// policy is returned as *APIError. Invalid configuration is reported as
// *ConfigurationError. Helpers such as IsNotFound and IsRateLimited make it
// easy to branch on common cases.
package brightpearl
