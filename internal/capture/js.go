package capture

import (
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

func evaluate(js string, out any) chromedp.Action {
	return chromedp.Evaluate(js, out)
}

func awaitPromise(js string, out any) chromedp.Action {
	return chromedp.Evaluate(js, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	})
}

const freezeStyleID = "__pagefreeze_freeze"

// freezeJS injects a scoped override that stops animations, transitions and
// smooth scrolling so two animation frames later the layout is still.
const freezeJS = `(() => {
	if (document.getElementById("` + freezeStyleID + `")) return true;
	const style = document.createElement("style");
	style.id = "` + freezeStyleID + `";
	style.setAttribute("data-pagefreeze-ignore", "1");
	style.textContent =
		"*, *::before, *::after {" +
		" animation: none !important;" +
		" transition: none !important;" +
		"} html { scroll-behavior: auto !important; }";
	(document.head || document.documentElement).appendChild(style);
	return true;
})()`

// pauseMediaJS pauses every playing media element. Each pause sits in its
// own try/catch: a failing element never stops the rest.
const pauseMediaJS = `(() => {
	const media = document.querySelectorAll("video, audio");
	for (const el of media) {
		try { el.pause(); } catch (e) { /* ignore */ }
	}
	return media.length;
})()`

// doubleRafJS resolves after two animation-frame boundaries, letting layout
// settle under the freeze override.
const doubleRafJS = `new Promise((resolve) => {
	requestAnimationFrame(() => requestAnimationFrame(() => resolve(true)));
})`

// unfreezeJS removes the freeze override from the live page.
const unfreezeJS = `(() => {
	const style = document.getElementById("` + freezeStyleID + `");
	if (style && style.parentNode) style.parentNode.removeChild(style);
	return true;
})()`

// inventoryJS reports the page's style-source list. Reading cssRules on a
// cross-origin sheet without CORS headers throws; those sheets come back
// with only their address and the blocked flag set.
const inventoryJS = `(() => {
	const sheets = [];
	for (const sheet of document.styleSheets) {
		const owner = sheet.ownerNode;
		if (owner && owner.getAttribute && owner.getAttribute("data-pagefreeze-ignore")) continue;
		const href = sheet.href || "";
		try {
			const rules = sheet.cssRules;
			let css = "";
			for (const rule of rules) css += rule.cssText + "\n";
			sheets.push({ href: href, blocked: false, css: css });
		} catch (e) {
			sheets.push({ href: href, blocked: true, css: "" });
		}
	}
	let doctype = "";
	if (document.doctype) {
		const dt = document.doctype;
		doctype = "<!DOCTYPE " + dt.name +
			(dt.publicId ? ' PUBLIC "' + dt.publicId + '"' : "") +
			(!dt.publicId && dt.systemId ? " SYSTEM" : "") +
			(dt.systemId ? ' "' + dt.systemId + '"' : "") + ">";
	}
	return {
		title: document.title || "",
		doctype: doctype,
		width: window.innerWidth,
		height: window.innerHeight,
		scheme: window.matchMedia && window.matchMedia("(prefers-color-scheme: dark)").matches ? "dark" : "light",
		finalUrl: String(window.location.href || ""),
		sheets: sheets,
	};
})()`

// relayFetchJS performs the privileged-side retrieval inside the page with
// ambient credentials and classifies the outcome exactly like the direct
// path: any non-2xx status is a failure.
const relayFetchJS = `(address) => fetch(address, { credentials: "include" })
	.then((resp) => {
		if (!resp.ok) return { ok: false, error: "HTTP " + resp.status + " fetching " + address };
		return resp.text().then((text) => ({ ok: true, text: text }));
	})
	.catch((e) => ({ ok: false, error: String(e) }))`
