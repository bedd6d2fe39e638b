// Command hostlink-server hosts the request pipeline behind an HTTP
// listener.
//
// Usage:
//
//	hostlink-server serve --config /etc/hostlink/config.yaml
//	hostlink-server reserve --address http://+:80/app/
//	hostlink-server release --address http://+:80/app/ --token <value>
//	hostlink-server version
//
// Configuration is read from the file, then HOSTLINK_* environment
// variables, then flags.
package main
