package runtime

import (
	"strconv"

	"dyms/lexer"
)

// FunctionType distinguishes the kind of function body currently being
// compiled -- it drives slot-0 reservation, implicit-return shape, and
// which statements are legal (return at script scope, return-with-value in
// an initializer).
type FunctionType int

const (
	TypeScript FunctionType = iota
	TypeFunction
	TypeMethod
	TypeInitializer
)

// local is one entry of the current function's locals list: the name
// token's lexeme, its scope depth (-1 while declared-but-uninitialized),
// and whether a nested function has captured it as an upvalue.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   int
	isLocal bool
}

// Compiler is the per-function compile-time state; `enclosing` is the
// parent pointer that makes the "stack of compilers" the static call chain
// of nested function compilations, reachable from the VM instead of living
// in a file-scope global.
type Compiler struct {
	enclosing  *Compiler
	function   *ObjFunction
	kind       FunctionType
	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// classCompiler threads the "currently compiling a class" stack so `this`
// can be validated without a global variable.
type classCompiler struct {
	enclosing *classCompiler
}

type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.LeftParen:    {grouping, call, PrecCall},
		lexer.Dot:          {nil, dot, PrecCall},
		lexer.Minus:        {unary, binary, PrecTerm},
		lexer.Plus:         {nil, binary, PrecTerm},
		lexer.Slash:        {nil, binary, PrecFactor},
		lexer.Star:         {nil, binary, PrecFactor},
		lexer.Bang:         {unary, nil, PrecNone},
		lexer.BangEqual:    {nil, binary, PrecEquality},
		lexer.EqualEqual:   {nil, binary, PrecEquality},
		lexer.Greater:      {nil, binary, PrecComparison},
		lexer.GreaterEqual: {nil, binary, PrecComparison},
		lexer.Less:         {nil, binary, PrecComparison},
		lexer.LessEqual:    {nil, binary, PrecComparison},
		lexer.Identifier:   {variable, nil, PrecNone},
		lexer.String:       {stringLit, nil, PrecNone},
		lexer.Number:       {number, nil, PrecNone},
		lexer.And:          {nil, and_, PrecAnd},
		lexer.False:        {literalFn, nil, PrecNone},
		lexer.Nil:          {literalFn, nil, PrecNone},
		lexer.Or:           {nil, or_, PrecOr},
		lexer.This:         {thisExpr, nil, PrecNone},
		lexer.True:         {literalFn, nil, PrecNone},
	}
}

func getRule(t lexer.TokenType) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{nil, nil, PrecNone}
}

// parser is the single-pass Pratt/recursive-descent driver. It owns the
// token stream and the current compiler/class stacks; vm is the explicit
// allocator context (string interning, object allocation) instead of a
// file-scope global.
type parser struct {
	vm       *VM
	scanner  *lexer.Scanner
	current  lexer.Token
	previous lexer.Token

	hadError    bool
	panicMode   bool
	diagnostics []string

	compiler *Compiler
	class    *classCompiler
}

// Compile compiles source into the implicit top-level function ("the
// script"). On failure it returns every diagnostic collected across
// panic-mode recovery,
func Compile(vm *VM, source string) (*ObjFunction, *CompileError) {
	p := &parser{vm: vm, scanner: lexer.NewScanner(source)}
	p.compiler = newCompiler(vm, nil, TypeScript, "")
	vm.compilerRoot = &p.compiler
	defer func() { vm.compilerRoot = nil }()

	p.advance()
	for !p.match(lexer.EOF) {
		p.declaration()
	}
	function := p.endCompiler()

	if p.hadError {
		return nil, &CompileError{Diagnostics: p.diagnostics}
	}
	return function, nil
}

func newCompiler(vm *VM, enclosing *Compiler, kind FunctionType, name string) *Compiler {
	c := &Compiler{enclosing: enclosing, kind: kind, function: vm.newFunction(name)}
	// Slot 0 is reserved for the callee itself; named "this" for methods so
	// `this` resolves as an ordinary local.
	if kind != TypeFunction && kind != TypeScript {
		c.locals = append(c.locals, local{name: "this", depth: 0})
	} else {
		c.locals = append(c.locals, local{name: "", depth: 0})
	}
	return c
}

func (p *parser) currentChunk() *Chunk { return p.compiler.function.Chunk }

// --- token stream plumbing -------------------------------------------------

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.ScanToken()
		if p.current.Type != lexer.Error {
			break
		}
		p.errorAtCurrent(p.current.Message)
	}
}

func (p *parser) check(t lexer.TokenType) bool { return p.current.Type == t }

func (p *parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(t lexer.TokenType, message string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *parser) errorAtPrevious(message string) { p.errorAt(p.previous, message) }

func (p *parser) errorAt(tok lexer.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	where := "at '" + tok.Lexeme + "'"
	if tok.Type == lexer.EOF {
		where = "at end"
	} else if tok.Type == lexer.Error {
		where = ""
	}
	if where == "" {
		p.diagnostics = append(p.diagnostics, "[line "+itoa(tok.Line)+"] Error: "+message)
	} else {
		p.diagnostics = append(p.diagnostics, "[line "+itoa(tok.Line)+"] Error "+where+": "+message)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

// --- byte emission ----------------------------------------------------------

func (p *parser) emitByte(b byte) { p.currentChunk().WriteByte(b, p.previous.Line) }

func (p *parser) emitBytes(a, b byte) {
	p.emitByte(a)
	p.emitByte(b)
}

func (p *parser) emitOp(op OpCode) { p.emitByte(byte(op)) }

func (p *parser) emit24(v int) {
	p.emitByte(byte(v >> 16))
	p.emitByte(byte(v >> 8))
	p.emitByte(byte(v))
}

// emitNamedOperand picks the narrowest opcode form for operand: one byte if
// it fits in 8 bits, else three big-endian bytes if it fits in 24 bits,
// else a compile error.
func (p *parser) emitNamedOperand(short, long OpCode, operand int) {
	if operand < 0 {
		p.errorAtPrevious("Internal compiler error: negative operand.")
		return
	}
	if operand <= maxShortOperand {
		p.emitByte(byte(short))
		p.emitByte(byte(operand))
		return
	}
	if operand <= maxLongOperand {
		p.emitByte(byte(long))
		p.emit24(operand)
		return
	}
	p.errorAtPrevious("Too many constants/locals in one chunk.")
}

func (p *parser) makeConstant(v Value) int {
	idx := p.currentChunk().AddConstant(v)
	if idx > maxLongOperand {
		p.errorAtPrevious("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (p *parser) emitConstant(v Value) {
	p.emitNamedOperand(OpConstant, OpConstantLong, p.makeConstant(v))
}

func (p *parser) emitJump(op OpCode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

func (p *parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > maxJumpOffset {
		p.errorAtPrevious("Too much code to jump over.")
		return
	}
	code := p.currentChunk().Code
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

func (p *parser) emitLoop(loopStart int) {
	p.emitOp(OpLoop)
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > maxJumpOffset {
		p.errorAtPrevious("Loop body too large.")
		return
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

func (p *parser) emitReturn() {
	if p.compiler.kind == TypeInitializer {
		p.emitNamedOperand(OpGetLocal, OpGetLocalLong, 0)
	} else {
		p.emitOp(OpNil)
	}
	p.emitOp(OpReturn)
}

func (p *parser) endCompiler() *ObjFunction {
	p.emitReturn()
	function := p.compiler.function
	function.UpvalueCount = len(p.compiler.upvalues)
	p.compiler = p.compiler.enclosing
	return function
}

// --- scope / locals / upvalues ----------------------------------------------

func (p *parser) beginScope() { p.compiler.scopeDepth++ }

func (p *parser) endScope() {
	p.compiler.scopeDepth--
	locals := p.compiler.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.compiler.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitOp(OpCloseUpvalue)
		} else {
			p.emitOp(OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.compiler.locals = locals
}

func resolveLocal(c *Compiler, p *parser, name string) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			if c.locals[i].depth == -1 {
				p.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func resolveUpvalue(c *Compiler, p *parser, name string) int {
	if c.enclosing == nil {
		return -1
	}
	if l := resolveLocal(c.enclosing, p, name); l != -1 {
		c.enclosing.locals[l].isCaptured = true
		return addUpvalue(c, l, true)
	}
	if u := resolveUpvalue(c.enclosing, p, name); u != -1 {
		return addUpvalue(c, u, false)
	}
	return -1
}

func addUpvalue(c *Compiler, index int, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(c.upvalues) - 1
}

func (p *parser) addLocal(name string) {
	p.compiler.locals = append(p.compiler.locals, local{name: name, depth: -1})
}

func (p *parser) declareVariable(name string) {
	if p.compiler.scopeDepth == 0 {
		return
	}
	for i := len(p.compiler.locals) - 1; i >= 0; i-- {
		l := p.compiler.locals[i]
		if l.depth != -1 && l.depth < p.compiler.scopeDepth {
			break
		}
		if l.name == name {
			p.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *parser) markInitialized() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	p.compiler.locals[len(p.compiler.locals)-1].depth = p.compiler.scopeDepth
}

func (p *parser) identifierConstant(name string) int {
	return p.makeConstant(ObjVal(p.vm.internString(name)))
}

func (p *parser) parseVariable(errMsg string) int {
	p.consume(lexer.Identifier, errMsg)
	name := p.previous.Lexeme
	p.declareVariable(name)
	if p.compiler.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *parser) defineVariable(global int) {
	if p.compiler.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitNamedOperand(OpDefineGlobal, OpDefineGlobalLong, global)
}

func (p *parser) namedVariable(tok lexer.Token, canAssign bool) {
	name := tok.Lexeme
	var getShort, getLong, setShort, setLong OpCode
	arg := resolveLocal(p.compiler, p, name)
	if arg != -1 {
		getShort, getLong = OpGetLocal, OpGetLocalLong
		setShort, setLong = OpSetLocal, OpSetLocalLong
	} else if arg = resolveUpvalue(p.compiler, p, name); arg != -1 {
		getShort, getLong = OpGetUpvalue, OpGetUpvalueLong
		setShort, setLong = OpSetUpvalue, OpSetUpvalueLong
	} else {
		arg = p.identifierConstant(name)
		getShort, getLong = OpGetGlobal, OpGetGlobalLong
		setShort, setLong = OpSetGlobal, OpSetGlobalLong
	}

	if canAssign && p.match(lexer.Equal) {
		p.expression()
		p.emitNamedOperand(setShort, setLong, arg)
	} else {
		p.emitNamedOperand(getShort, getLong, arg)
	}
}

// --- expressions --------------------------------------------------------

func (p *parser) parsePrecedence(precedence Precedence) {
	p.advance()
	prefixRule := getRule(p.previous.Type).prefix
	if prefixRule == nil {
		p.errorAtPrevious("Expect expression.")
		return
	}
	canAssign := precedence <= PrecAssignment
	prefixRule(p, canAssign)

	for precedence <= getRule(p.current.Type).precedence {
		p.advance()
		infixRule := getRule(p.previous.Type).infix
		infixRule(p, canAssign)
	}

	if canAssign && p.match(lexer.Equal) {
		p.errorAtPrevious("Invalid assignment target.")
	}
}

func (p *parser) expression() { p.parsePrecedence(PrecAssignment) }

func number(p *parser, _ bool) {
	v, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	p.emitConstant(NumberVal(v))
}

func stringLit(p *parser, _ bool) {
	lex := p.previous.Lexeme
	chars := lex[1 : len(lex)-1]
	p.emitConstant(ObjVal(p.vm.internString(chars)))
}

func literalFn(p *parser, _ bool) {
	switch p.previous.Type {
	case lexer.False:
		p.emitOp(OpFalse)
	case lexer.Nil:
		p.emitOp(OpNil)
	case lexer.True:
		p.emitOp(OpTrue)
	}
}

func grouping(p *parser, _ bool) {
	p.expression()
	p.consume(lexer.RightParen, "Expect ')' after expression.")
}

func unary(p *parser, _ bool) {
	opType := p.previous.Type
	p.parsePrecedence(PrecUnary)
	switch opType {
	case lexer.Minus:
		p.emitOp(OpNegate)
	case lexer.Bang:
		p.emitOp(OpNot)
	}
}

func binary(p *parser, _ bool) {
	opType := p.previous.Type
	rule := getRule(opType)
	p.parsePrecedence(rule.precedence + 1)
	switch opType {
	case lexer.Plus:
		p.emitOp(OpAdd)
	case lexer.Minus:
		p.emitOp(OpSubtract)
	case lexer.Star:
		p.emitOp(OpMultiply)
	case lexer.Slash:
		p.emitOp(OpDivide)
	case lexer.BangEqual:
		p.emitOp(OpEqual)
		p.emitOp(OpNot)
	case lexer.EqualEqual:
		p.emitOp(OpEqual)
	case lexer.Greater:
		p.emitOp(OpGreater)
	case lexer.GreaterEqual:
		p.emitOp(OpLess)
		p.emitOp(OpNot)
	case lexer.Less:
		p.emitOp(OpLess)
	case lexer.LessEqual:
		p.emitOp(OpGreater)
		p.emitOp(OpNot)
	}
}

func and_(p *parser, _ bool) {
	endJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

func or_(p *parser, _ bool) {
	elseJump := p.emitJump(OpJumpIfFalse)
	endJump := p.emitJump(OpJump)
	p.patchJump(elseJump)
	p.emitOp(OpPop)
	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

func variable(p *parser, canAssign bool) { p.namedVariable(p.previous, canAssign) }

func thisExpr(p *parser, _ bool) {
	if p.class == nil {
		p.errorAtPrevious("Can't use 'this' outside of a class.")
		return
	}
	p.namedVariable(p.previous, false)
}

func (p *parser) argumentList() int {
	argCount := 0
	if !p.check(lexer.RightParen) {
		for {
			p.expression()
			if argCount == 255 {
				p.errorAtPrevious("Can't have more than 255 arguments.")
			}
			argCount++
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RightParen, "Expect ')' after arguments.")
	return argCount
}

func call(p *parser, _ bool) {
	argCount := p.argumentList()
	p.emitBytes(byte(OpCall), byte(argCount))
}

func dot(p *parser, canAssign bool) {
	p.consume(lexer.Identifier, "Expect property name after '.'.")
	name := p.identifierConstant(p.previous.Lexeme)

	switch {
	case canAssign && p.match(lexer.Equal):
		p.expression()
		p.emitNamedOperand(OpSetProperty, OpSetPropertyLong, name)
	case p.match(lexer.LeftParen):
		argCount := p.argumentList()
		p.emitNamedOperand(OpInvoke, OpInvokeLong, name)
		p.emitByte(byte(argCount))
	default:
		p.emitNamedOperand(OpGetProperty, OpGetPropertyLong, name)
	}
}

// --- statements -----------------------------------------------------------

func (p *parser) declaration() {
	switch {
	case p.match(lexer.Class):
		p.classDeclaration()
	case p.match(lexer.Fun):
		p.funDeclaration()
	case p.match(lexer.Var):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Type != lexer.EOF {
		if p.previous.Type == lexer.Semicolon {
			return
		}
		switch p.current.Type {
		case lexer.Class, lexer.Fun, lexer.Var, lexer.For, lexer.If, lexer.While, lexer.Print, lexer.Return:
			return
		}
		p.advance()
	}
}

func (p *parser) classDeclaration() {
	p.consume(lexer.Identifier, "Expect class name.")
	className := p.previous
	nameConstant := p.identifierConstant(className.Lexeme)
	p.declareVariable(className.Lexeme)

	p.emitNamedOperand(OpClass, OpClassLong, nameConstant)
	p.defineVariable(nameConstant)

	cc := &classCompiler{enclosing: p.class}
	p.class = cc

	p.namedVariable(className, false)
	p.consume(lexer.LeftBrace, "Expect '{' before class body.")
	for !p.check(lexer.RightBrace) && !p.check(lexer.EOF) {
		p.method()
	}
	p.consume(lexer.RightBrace, "Expect '}' after class body.")
	p.emitOp(OpPop)

	p.class = cc.enclosing
}

func (p *parser) method() {
	p.consume(lexer.Identifier, "Expect method name.")
	name := p.previous.Lexeme
	constant := p.identifierConstant(name)

	kind := TypeMethod
	if name == "init" {
		kind = TypeInitializer
	}
	p.compileFunctionBody(kind, name)
	p.emitNamedOperand(OpMethod, OpMethodLong, constant)
}

func (p *parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	name := p.previous.Lexeme
	p.markInitialized()
	p.compileFunctionBody(TypeFunction, name)
	p.defineVariable(global)
}

// compileFunctionBody compiles one function/method body in a fresh nested
// Compiler, then emits OP_CLOSURE[_LONG] in the *enclosing* chunk followed
// by each upvalue's (flag, index) pair,
func (p *parser) compileFunctionBody(kind FunctionType, name string) {
	p.compiler = newCompiler(p.vm, p.compiler, kind, name)
	p.beginScope()

	p.consume(lexer.LeftParen, "Expect '(' after function name.")
	if !p.check(lexer.RightParen) {
		for {
			p.compiler.function.Arity++
			if p.compiler.function.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConst := p.parseVariable("Expect parameter name.")
			p.defineVariable(paramConst)
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RightParen, "Expect ')' after parameters.")
	p.consume(lexer.LeftBrace, "Expect '{' before function body.")

	p.block()

	enclosingUpvalues := p.compiler.upvalues
	function := p.endCompiler()

	funcConst := p.makeConstant(ObjVal(function))
	p.emitNamedOperand(OpClosure, OpClosureLong, funcConst)
	for _, uv := range enclosingUpvalues {
		flag := byte(0)
		if uv.isLocal {
			flag |= 1
		}
		isLong := uv.index > maxShortOperand
		if isLong {
			flag |= 2
		}
		p.emitByte(flag)
		if isLong {
			p.emit24(uv.index)
		} else {
			p.emitByte(byte(uv.index))
		}
	}
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")
	if p.match(lexer.Equal) {
		p.expression()
	} else {
		p.emitOp(OpNil)
	}
	p.consume(lexer.Semicolon, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

func (p *parser) statement() {
	switch {
	case p.match(lexer.Print):
		p.printStatement()
	case p.match(lexer.For):
		p.forStatement()
	case p.match(lexer.If):
		p.ifStatement()
	case p.match(lexer.Return):
		p.returnStatement()
	case p.match(lexer.While):
		p.whileStatement()
	case p.match(lexer.LeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(lexer.Semicolon, "Expect ';' after value.")
	p.emitOp(OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(lexer.Semicolon, "Expect ';' after expression.")
	p.emitOp(OpPop)
}

func (p *parser) returnStatement() {
	if p.compiler.kind == TypeScript {
		p.errorAtPrevious("Can't return from top-level code.")
	}
	if p.match(lexer.Semicolon) {
		p.emitReturn()
		return
	}
	if p.compiler.kind == TypeInitializer {
		p.errorAtPrevious("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(lexer.Semicolon, "Expect ';' after return value.")
	p.emitOp(OpReturn)
}

func (p *parser) ifStatement() {
	p.consume(lexer.LeftParen, "Expect '(' after 'if'.")
	p.expression()
	p.consume(lexer.RightParen, "Expect ')' after condition.")

	thenJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.statement()

	elseJump := p.emitJump(OpJump)
	p.patchJump(thenJump)
	p.emitOp(OpPop)

	if p.match(lexer.Else) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.consume(lexer.LeftParen, "Expect '(' after 'while'.")
	p.expression()
	p.consume(lexer.RightParen, "Expect ')' after condition.")

	exitJump := p.emitJump(OpJumpIfFalse)
	p.emitOp(OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(OpPop)
}

// forStatement desugars `for(init; cond; incr) body` into the init/
// loopStart/jump-if-false/bodyStart/incrementStart/loop structure described
// in
func (p *parser) forStatement() {
	p.beginScope()
	p.consume(lexer.LeftParen, "Expect '(' after 'for'.")
	switch {
	case p.match(lexer.Semicolon):
		// no initializer
	case p.match(lexer.Var):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(lexer.Semicolon) {
		p.expression()
		p.consume(lexer.Semicolon, "Expect ';' after loop condition.")
		exitJump = p.emitJump(OpJumpIfFalse)
		p.emitOp(OpPop)
	}

	if !p.match(lexer.RightParen) {
		bodyJump := p.emitJump(OpJump)
		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitOp(OpPop)
		p.consume(lexer.RightParen, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(OpPop)
	}
	p.endScope()
}

func (p *parser) block() {
	for !p.check(lexer.RightBrace) && !p.check(lexer.EOF) {
		p.declaration()
	}
	p.consume(lexer.RightBrace, "Expect '}' after block.")
}
