// Package urls holds the documentation links the CLI points users at, so
// they can be updated in one place.
//
//	fmt.Printf("See %s\n", urls.SSLServerSetup)
package urls
