package main

import cli "gitlab.com/maplesense1/slc.control_server/src/production/SLC.AdminCli/cli"

func main() {
	cli.Execute()
}
