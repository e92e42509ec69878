package parse

import (
	"context"
	"errors"
	"testing"

	"github.com/phobologic/archlens/internal/lang"
	"github.com/phobologic/archlens/internal/model"
	"github.com/phobologic/archlens/internal/syntax"
)

func setup(t *testing.T, langName string) func(source string) Structure {
	t.Helper()
	l := lang.Languages[langName]
	if l == nil {
		t.Fatalf("language %q not registered", langName)
	}
	return func(source string) Structure {
		t.Helper()
		tree, err := syntax.Parse(context.Background(), l.NewParser(), "test"+l.Extensions[0], langName, []byte(source), false)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		defer tree.Close()
		s, err := Extract(l, tree)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		return s
	}
}

// --- Python tests ---

func TestPythonExtractClassWithBases(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	s := extract("import abc\n\nclass UserRepository(BaseRepository, abc.ABC):\n    pass\n")
	classes := filterKind(s.Definitions, model.Class)
	if len(classes) != 1 {
		t.Fatalf("expected 1 class, got %d: %+v", len(classes), s.Definitions)
	}
	c := classes[0]
	if c.Name != "UserRepository" {
		t.Errorf("name = %q, want UserRepository", c.Name)
	}
	if c.Line != 3 {
		t.Errorf("line = %d, want 3", c.Line)
	}
	bases := map[string]bool{}
	for _, b := range c.Bases {
		bases[b] = true
	}
	if len(c.Bases) != 2 || !bases["BaseRepository"] || !bases["ABC"] {
		t.Errorf("bases = %v, want BaseRepository and ABC", c.Bases)
	}
}

func TestPythonExtractMethod(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	source := `class UserService:
    def find_user(self, user_id: int) -> str:
        return str(user_id)

def helper():
    pass
`
	s := extract(source)
	methods := filterKind(s.Definitions, model.Method)
	if len(methods) != 1 {
		t.Fatalf("expected 1 method, got %d: %+v", len(methods), s.Definitions)
	}
	if methods[0].Name != "find_user" || methods[0].Owner != "UserService" {
		t.Errorf("method = %+v", methods[0])
	}
	funcs := filterKind(s.Definitions, model.Function)
	if len(funcs) != 1 || funcs[0].Name != "helper" {
		t.Errorf("functions = %+v", funcs)
	}
}

func TestPythonExtractImports(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	s := extract("import os\nfrom app.repositories.user_repository import UserRepository\nfrom .models import User\n")
	paths := importPaths(s)
	for _, want := range []string{"os", "app/repositories/user_repository", "models"} {
		if !paths[want] {
			t.Errorf("missing import %q in %v", want, s.Imports)
		}
	}
}

func TestPythonExtractTypeRefs(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	s := extract("def handle(repo: UserRepository, limit: int = 3):\n    pass\n")
	if !contains(s.TypeRefs, "UserRepository") {
		t.Errorf("missing type ref UserRepository in %v", s.TypeRefs)
	}
}

func TestPythonExtractEmpty(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	s := extract("")
	if len(s.Definitions) != 0 || len(s.Imports) != 0 {
		t.Errorf("expected empty structure, got %+v", s)
	}
}

// --- Go tests ---

func TestGoExtractTypes(t *testing.T) {
	t.Parallel()
	extract := setup(t, "go")

	source := `package repo

type Store interface {
	Get(id string) (*User, error)
}

type UserStore struct {
	db *DB
}
`
	s := extract(source)
	ifaces := filterKind(s.Definitions, model.Interface)
	if len(ifaces) != 1 || ifaces[0].Name != "Store" {
		t.Errorf("interfaces = %+v", ifaces)
	}
	classes := filterKind(s.Definitions, model.Class)
	if len(classes) != 1 || classes[0].Name != "UserStore" {
		t.Errorf("structs = %+v", classes)
	}
	if !contains(s.TypeRefs, "DB") {
		t.Errorf("type refs = %v, want DB", s.TypeRefs)
	}
}

func TestGoExtractMethod(t *testing.T) {
	t.Parallel()
	extract := setup(t, "go")

	source := `package server

func (s *Server) Handle(w ResponseWriter) {
}

func NewServer() *Server { return nil }
`
	s := extract(source)
	methods := filterKind(s.Definitions, model.Method)
	if len(methods) != 1 {
		t.Fatalf("expected 1 method, got %+v", s.Definitions)
	}
	if methods[0].Name != "Handle" || methods[0].Owner != "Server" {
		t.Errorf("method = %+v", methods[0])
	}
	funcs := filterKind(s.Definitions, model.Function)
	if len(funcs) != 1 || funcs[0].Name != "NewServer" {
		t.Errorf("functions = %+v", funcs)
	}
}

func TestGoExtractImports(t *testing.T) {
	t.Parallel()
	extract := setup(t, "go")

	source := `package main

import (
	"fmt"
	"github.com/acme/shop/internal/repo"
)
`
	s := extract(source)
	paths := importPaths(s)
	if !paths["fmt"] || !paths["github.com/acme/shop/internal/repo"] {
		t.Errorf("imports = %+v", s.Imports)
	}
	if s.Imports[1].Line != 5 {
		t.Errorf("import line = %d, want 5", s.Imports[1].Line)
	}
}

// --- Java tests ---

func TestJavaExtractClass(t *testing.T) {
	t.Parallel()
	extract := setup(t, "java")

	source := `package com.acme.web;

import com.acme.service.OrderService;

public class OrderController extends BaseController implements Handler {
    private OrderService service;

    public void handleCreate() {}
}
`
	s := extract(source)
	classes := filterKind(s.Definitions, model.Class)
	if len(classes) != 1 || classes[0].Name != "OrderController" {
		t.Fatalf("classes = %+v", classes)
	}
	bases := map[string]bool{}
	for _, b := range classes[0].Bases {
		bases[b] = true
	}
	if !bases["BaseController"] || !bases["Handler"] {
		t.Errorf("bases = %v", classes[0].Bases)
	}
	methods := filterKind(s.Definitions, model.Method)
	if len(methods) != 1 || methods[0].Owner != "OrderController" {
		t.Errorf("methods = %+v", methods)
	}
	if !importPaths(s)["com/acme/service/OrderService"] {
		t.Errorf("imports = %+v", s.Imports)
	}
	if !contains(s.TypeRefs, "OrderService") {
		t.Errorf("type refs = %v", s.TypeRefs)
	}
}

// --- Ruby tests ---

func TestRubyExtractClass(t *testing.T) {
	t.Parallel()
	extract := setup(t, "ruby")

	source := `require 'services/billing'

class InvoicesController < ApplicationController
  def create
  end
end
`
	s := extract(source)
	classes := filterKind(s.Definitions, model.Class)
	if len(classes) != 1 || classes[0].Name != "InvoicesController" {
		t.Fatalf("classes = %+v", classes)
	}
	if len(classes[0].Bases) != 1 || classes[0].Bases[0] != "ApplicationController" {
		t.Errorf("bases = %v", classes[0].Bases)
	}
	methods := filterKind(s.Definitions, model.Method)
	if len(methods) != 1 || methods[0].Owner != "InvoicesController" {
		t.Errorf("methods = %+v", methods)
	}
	if !importPaths(s)["services/billing"] {
		t.Errorf("imports = %+v", s.Imports)
	}
}

func TestParseSyntaxError(t *testing.T) {
	t.Parallel()

	l := lang.Languages["python"]
	_, err := syntax.Parse(context.Background(), l.NewParser(), "bad.py", "python", []byte("def broken(:\n"), false)
	var pf *model.ParseFailure
	if !errors.As(err, &pf) {
		t.Fatalf("expected ParseFailure, got %v", err)
	}
	if !errors.Is(err, syntax.ErrSyntax) {
		t.Errorf("expected ErrSyntax in chain, got %v", err)
	}
	if pf.Path != "bad.py" {
		t.Errorf("path = %q", pf.Path)
	}

	tree, err := syntax.Parse(context.Background(), l.NewParser(), "bad.py", "python", []byte("def broken(:\n"), true)
	if err != nil {
		t.Fatalf("tolerant parse: %v", err)
	}
	tree.Close()
}

// --- helpers ---

func filterKind(defs []model.Definition, kind model.DefinitionKind) []model.Definition {
	var out []model.Definition
	for _, d := range defs {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func importPaths(s Structure) map[string]bool {
	paths := make(map[string]bool, len(s.Imports))
	for _, imp := range s.Imports {
		paths[imp.Path] = true
	}
	return paths
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
