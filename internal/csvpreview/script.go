package csvpreview

const sortScript = `<script>
(function () {
  if (window.__rendarCsvSort) {
    return;
  }
  window.__rendarCsvSort = true;

  function getCellValue(row, index) {
    var cell = row.children[index];
    return cell ? cell.textContent.trim() : "";
  }

  function isNumeric(value) {
    if (value === "") {
      return false;
    }
    var number = Number(value);
    return !Number.isNaN(number);
  }

  function setupTable(table) {
    var tbody = table.tBodies[0];
    if (!tbody) {
      return;
    }
    var headers = table.tHead ? table.tHead.rows[0].cells : table.rows[0].cells;
    Array.prototype.forEach.call(headers, function (th, index) {
      th.setAttribute("role", "button");
      th.tabIndex = 0;
      function sort() {
        var rows = Array.prototype.slice.call(tbody.rows);
        var values = rows.map(function (row) {
          return getCellValue(row, index);
        });
        var numeric = values.filter(function (value) { return value !== ""; }).every(isNumeric);
        var current = th.getAttribute("data-sort");
        var next = current === "asc" ? "desc" : "asc";
        Array.prototype.forEach.call(headers, function (header) {
          header.removeAttribute("data-sort");
          header.removeAttribute("aria-sort");
        });
        th.setAttribute("data-sort", next);
        th.setAttribute("aria-sort", next === "asc" ? "ascending" : "descending");
        rows.sort(function (a, b) {
          var aValue = getCellValue(a, index);
          var bValue = getCellValue(b, index);
          if (numeric && isNumeric(aValue) && isNumeric(bValue)) {
            var diff = Number(aValue) - Number(bValue);
            return next === "asc" ? diff : -diff;
          }
          var order = aValue.localeCompare(bValue);
          return next === "asc" ? order : -order;
        });
        rows.forEach(function (row) {
          tbody.appendChild(row);
        });
      }
      th.addEventListener("click", sort);
      th.addEventListener("keydown", function (event) {
        if (event.key === "Enter" || event.key === " ") {
          event.preventDefault();
          sort();
        }
      });
    });
  }

  function init() {
    var tables = document.querySelectorAll("table.csv-table");
    Array.prototype.forEach.call(tables, setupTable);
  }

  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", init);
  } else {
    init();
  }
})();
</script>
`
