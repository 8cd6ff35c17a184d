package main

import "shareadmin/server"

func main() {
	server.Main()
}
