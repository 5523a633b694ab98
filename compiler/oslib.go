package compiler

import (
	"fmt"
	"sync"

	"github.com/strager/jackc/ast"
)

// osLibrarySource declares the subroutines of the standard OS. Bodies are
// empty: the classes are implemented in VM code shipped with the OS and are
// only needed here for name and type resolution.
const osLibrarySource = `
(class Math
  (subroutine function int abs (params (param int x)) (body (statements)))
  (subroutine function int multiply (params (param int x) (param int y)) (body (statements)))
  (subroutine function int divide (params (param int x) (param int y)) (body (statements)))
  (subroutine function int min (params (param int x) (param int y)) (body (statements)))
  (subroutine function int max (params (param int x) (param int y)) (body (statements)))
  (subroutine function int sqrt (params (param int x)) (body (statements))))

(class String
  (subroutine constructor String new (params (param int maxLength)) (body (statements)))
  (subroutine method void dispose (params) (body (statements)))
  (subroutine method int length (params) (body (statements)))
  (subroutine method char charAt (params (param int j)) (body (statements)))
  (subroutine method void setCharAt (params (param int j) (param char c)) (body (statements)))
  (subroutine method String appendChar (params (param char c)) (body (statements)))
  (subroutine method void eraseLastChar (params) (body (statements)))
  (subroutine method int intValue (params) (body (statements)))
  (subroutine method void setInt (params (param int val)) (body (statements)))
  (subroutine function char backSpace (params) (body (statements)))
  (subroutine function char doubleQuote (params) (body (statements)))
  (subroutine function char newLine (params) (body (statements))))

(class Array
  (subroutine function Array new (params (param int size)) (body (statements)))
  (subroutine method void dispose (params) (body (statements))))

(class Output
  (subroutine function void moveCursor (params (param int i) (param int j)) (body (statements)))
  (subroutine function void printChar (params (param char c)) (body (statements)))
  (subroutine function void printString (params (param String s)) (body (statements)))
  (subroutine function void printInt (params (param int i)) (body (statements)))
  (subroutine function void println (params) (body (statements)))
  (subroutine function void backSpace (params) (body (statements))))

(class Screen
  (subroutine function void clearScreen (params) (body (statements)))
  (subroutine function void setColor (params (param boolean b)) (body (statements)))
  (subroutine function void drawPixel (params (param int x) (param int y)) (body (statements)))
  (subroutine function void drawLine (params (param int x1) (param int y1) (param int x2) (param int y2)) (body (statements)))
  (subroutine function void drawRectangle (params (param int x1) (param int y1) (param int x2) (param int y2)) (body (statements)))
  (subroutine function void drawCircle (params (param int x) (param int y) (param int r)) (body (statements))))

(class Keyboard
  (subroutine function char keyPressed (params) (body (statements)))
  (subroutine function char readChar (params) (body (statements)))
  (subroutine function String readLine (params (param String message)) (body (statements)))
  (subroutine function int readInt (params (param String message)) (body (statements))))

(class Memory
  (subroutine function int peek (params (param int address)) (body (statements)))
  (subroutine function void poke (params (param int address) (param int value)) (body (statements)))
  (subroutine function Array alloc (params (param int size)) (body (statements)))
  (subroutine function void deAlloc (params (param Array o)) (body (statements))))

(class Sys
  (subroutine function void halt (params) (body (statements)))
  (subroutine function void error (params (param int errorCode)) (body (statements)))
  (subroutine function void wait (params (param int duration)) (body (statements))))
`

var osLibraryClasses = sync.OnceValue(func() []*ast.Node {
	classes, err := ast.Decode(osLibrarySource)
	if err != nil {
		panic(fmt.Sprintf("OS library declarations: %v", err))
	}
	return classes
})
