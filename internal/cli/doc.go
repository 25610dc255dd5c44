// Package cli provides carddavctl, the operator command line of the
// addressbook manager.
//
// Commands run either once, taken from the command line, or in an
// interactive REPL started via App.Root. Every command acts for the user the
// App was created for:
//
//   - accounts / addressbooks: list what the user owns
//   - addaccount: create an account through discovery
//   - rediscover, sync, clearcache: refresh remote state
//   - setaccount, setabook, template: change settings as key=value pairs
//   - delaccount, delabook: remove local state
//   - login, logout: store or drop the session secrets in the keyring
//
// Accounts created from an admin preset cannot be deleted here and their
// fixed attributes cannot be changed.
package cli
