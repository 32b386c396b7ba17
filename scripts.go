package tiktok

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JS snippets evaluated in the page. Each is a function definition taking
// JSON-encodable args and always returning a value; chromedp rejects
// undefined results.

const jsLocation = `() => window.location.href`

const jsScrollHeight = `() => document.body ? document.body.scrollHeight : 0`

const jsScrollToBottom = `() => { window.scrollTo(0, document.body.scrollHeight); return true; }`

const jsScrollToTop = `() => { window.scrollTo(0, 0); return true; }`

const jsScrollBy = `(dy) => { window.scrollBy(0, dy); return true; }`

const jsCount = `(sel) => document.querySelectorAll(sel).length`

const jsItemText = `(itemSel, i, sel) => {
	const items = document.querySelectorAll(itemSel);
	if (i < 0 || i >= items.length) return {found: false, text: ""};
	const el = items[i].querySelector(sel);
	if (!el) return {found: false, text: ""};
	return {found: true, text: (el.innerText || el.textContent || "").trim()};
}`

const jsClickItem = `(itemSel, i) => {
	const items = document.querySelectorAll(itemSel);
	if (i < 0 || i >= items.length) return false;
	items[i].click();
	return true;
}`

const jsText = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) return {found: false, text: ""};
	return {found: true, text: (el.innerText || el.textContent || "").trim()};
}`

// callExpression turns a function definition and its args into a single
// expression, for engines that can only evaluate expressions.
func callExpression(fn string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("encode js arg: %w", err)
		}
		encoded = append(encoded, string(b))
	}
	return "(" + fn + ")(" + strings.Join(encoded, ", ") + ")", nil
}
