/*
Package wallet provides the account side of the ledger.

The wallet service handles:
- Opening a wallet for a new account holder
- Cached wallet lookups (invalidated by the transaction engine after every balance change)
- Transaction history and single-record lookups scoped to the owner
- Savings goal creation and listing

Balances are never changed here; deposits, withdrawals, transfers, merchant
payments and savings movements go through package transaction.

Usage:

	svc := wallet.NewService(wallets, transactions, goals, cache, wallet.WalletConfig{}, nil)

	w, err := svc.OpenWallet(ctx, userID)
	history, err := svc.GetHistory(ctx, userID, wallet.Page{Limit: 20})

Cache Management:

Wallets are cached in redis under wallet:user:<id> for the repository's
default expiration. A cache failure is logged and the database is used.
*/
package wallet
