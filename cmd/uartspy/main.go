// Command uartspy recovers the bytes an STM8 firmware writes to its UART by
// halting on the transmit register write and reading the byte through the
// debugger.
package main

func main() {
	Execute()
}
