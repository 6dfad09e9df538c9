// Package vendra provides the transactional core of a multi-tenant
// reseller platform as an embeddable Go library.
//
// Vendra is designed as a library, not a service. Import it directly into
// your Go application and wire it to a store. It provides:
//
//   - An append-only wallet ledger with derived balances
//   - A role-guarded order lifecycle state machine
//   - Role-based pricing with fixed, percentage, and tiered markup
//   - Schema-driven validation for dynamic service input forms
//   - Pluggable fulfillment providers (manual and HTTP API built-in)
//   - Background provider status sync with rate limiting
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/vendra/vendra"
//	    "github.com/vendra/vendra/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	eng := vendra.New(store)
//
//	// Start the engine (migrates and begins the sync worker)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Wallets hold no stored balance. Every credit, debit, lock, unlock, and
// refund is an immutable ledger entry, and the balance is derived by
// folding over completed entries:
//
//	bal, err := eng.Balance(ctx, walletID)
//	fmt.Println(bal.Available, bal.Locked)
//
// Orders move through a fixed state machine. Placing an order prices it
// but charges nothing; payment locks funds; delivery settles them:
//
//	o, err := eng.PlaceOrder(ctx, vendra.PlaceOrderRequest{...})
//	o, err = eng.ProcessOrderPayment(ctx, o.ID)
//	o, err = eng.FulfillOrder(ctx, o.ID)
//
// Services are data, not code. A service's input form is a stored schema,
// so a tenant adds new service types without a deploy.
//
// All monetary calculations use integer arithmetic in minor currency
// units. Markup is expressed in basis points (10000 = 100%).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	ord_01h2xcejqtf2nbrexx3vqjhp41  // Order ID
//	wal_01h2xcejqtf2nbrexx3vqjhp41  // Wallet ID
//	txn_01h455vb4pex5vsknk084sn02q  // Ledger entry ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package vendra
