// Command tripctl drives the TripWell content service one flow at a time.
//
// A flow is a fixed chain of service calls (place profile, persona, city
// metadata, trip setup). tripctl runs the chain stage by stage, stops at
// the first failure and reports which stage broke and why:
//
//	tripctl run place --set city=Paris --set budget='$$'
//	tripctl batch -f seeds.yaml --flow place
//	tripctl history place --failed
package main

func main() {
	Execute()
}
