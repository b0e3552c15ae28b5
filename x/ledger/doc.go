/*
Package ledger implements the ledger that custody programs move assets with.

It keeps three kinds of accounts: native balances in lamports, mints and
token accounts holding an amount of a single mint for an owner. Every
operation that takes value out of an account must be authorized by an
Authority for the account owner. The owner is either a key that signed the
transaction or a program derived address, in which case the program proves
control by presenting an AuthorityCredential.

Token accounts keep a reserve of lamports, paid by whoever creates them and
returned to the destination when the account is closed.
*/
package ledger
